// Package ses checks an SES identity before a user pool is pointed at it for
// developer email sending.
package ses

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/awssdk"
)

// ErrInvalidSender wraps every validation failure.
var ErrInvalidSender = errors.New("invalid email sender")

var identityArnRe = regexp.MustCompile(`^arn:(aws|aws-us-gov|aws-cn):ses:([a-z0-9-]+):([0-9]{12}):identity/(.+)$`)

// Cognito regions that may only send through an identity in the same region.
var inRegionOnly = map[string]struct{}{
	"us-west-1":      {},
	"ap-northeast-3": {},
	"ap-southeast-3": {},
	"eu-west-3":      {},
	"eu-north-1":     {},
	"eu-south-1":     {},
	"sa-east-1":      {},
	"il-central-1":   {},
	"af-south-1":     {},
}

// Cognito regions whose sending goes through a fixed alternate region.
var alternateRegion = map[string]string{
	"ap-east-1":      "ap-southeast-1",
	"ap-south-2":     "ap-south-1",
	"ap-southeast-4": "ap-southeast-2",
	"ap-southeast-5": "ap-southeast-2",
	"ca-west-1":      "ca-central-1",
	"eu-central-2":   "eu-central-1",
	"eu-south-2":     "eu-west-3",
	"me-central-1":   "eu-central-1",
}

// Identity regions usable from any other Cognito region of the same partition.
var crossRegion = map[string]struct{}{"us-east-1": {}, "us-west-2": {}, "eu-west-1": {}}

// Sender is the user pool's email sending configuration.
type Sender struct {
	SourceArn string
	From      string
	ReplyTo   string
}

// Identity is the parsed SES identity of a Sender.
type Identity struct {
	Partition string
	Region    string
	Account   string
	Name      string
}

// Arn rebuilds the identity ARN.
func (i Identity) Arn() string {
	return fmt.Sprintf("arn:%s:ses:%s:%s:identity/%s", i.Partition, i.Region, i.Account, i.Name)
}

// Validate checks that s can be used by a user pool in userPoolRegion.
func Validate(s Sender, userPoolRegion string) (Identity, error) {
	m := identityArnRe.FindStringSubmatch(s.SourceArn)
	if m == nil {
		return Identity{}, fmt.Errorf("%w: sourceArn %q is not an SES identity ARN", ErrInvalidSender, s.SourceArn)
	}
	id := Identity{Partition: m[1], Region: m[2], Account: m[3], Name: m[4]}

	if err := checkFrom(s.From, id.Name); err != nil {
		return Identity{}, err
	}
	if s.ReplyTo != "" {
		if _, err := parseAddress(s.ReplyTo); err != nil {
			return Identity{}, fmt.Errorf("%w: replyTo %q is not an email address", ErrInvalidSender, s.ReplyTo)
		}
	}
	if err := checkRegion(id, userPoolRegion); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func parseAddress(s string) (string, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	if !strings.Contains(addr.Address, "@") {
		return "", errors.New("missing @")
	}
	return strings.ToLower(addr.Address), nil
}

// checkFrom requires From to equal an email identity, or to sit within a
// domain identity.
func checkFrom(from, identity string) error {
	addr, err := parseAddress(from)
	if err != nil {
		return fmt.Errorf("%w: from %q is not an email address", ErrInvalidSender, from)
	}
	identity = strings.ToLower(identity)
	if strings.Contains(identity, "@") {
		if addr != identity {
			return fmt.Errorf("%w: from must equal the SES email identity %q", ErrInvalidSender, identity)
		}
		return nil
	}
	domain := addr[strings.LastIndex(addr, "@")+1:]
	if domain != identity && !strings.HasSuffix(domain, "."+identity) {
		return fmt.Errorf("%w: from %q must be an address within domain %q", ErrInvalidSender, from, identity)
	}
	return nil
}

func checkRegion(id Identity, userPoolRegion string) error {
	if _, ok := inRegionOnly[userPoolRegion]; ok {
		if id.Region != userPoolRegion {
			return fmt.Errorf("%w: identity region %s must match the user pool region %s", ErrInvalidSender, id.Region, userPoolRegion)
		}
		return nil
	}
	if alt, ok := alternateRegion[userPoolRegion]; ok {
		if id.Region != alt {
			return fmt.Errorf("%w: identity region %s must be %s for user pools in %s", ErrInvalidSender, id.Region, alt, userPoolRegion)
		}
		return nil
	}
	if id.Region != userPoolRegion {
		if _, ok := crossRegion[id.Region]; !ok {
			return fmt.Errorf("%w: identity region %s must match the user pool region %s or be one of us-east-1, us-west-2, eu-west-1", ErrInvalidSender, id.Region, userPoolRegion)
		}
	}
	if awssdk.PartitionForRegion(id.Region) != awssdk.PartitionForRegion(userPoolRegion) {
		return fmt.Errorf("%w: partition %s cannot serve user pools in %s", ErrInvalidSender, id.Partition, userPoolRegion)
	}
	return nil
}

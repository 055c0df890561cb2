package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	ini "gopkg.in/ini.v1"
)

// SectionName is the only section read from the deployment configuration file.
const SectionName = "main"

// Keys of the [main] section. All of them are required.
const (
	KeyHostedZoneID        = "hosted_zone_id"
	KeyHostedZoneName      = "hosted_zone_name"
	KeyCognitoCustomDomain = "cognito_custom_domain"
	KeyApplicationDNSName  = "application_dns_name"
	KeyBackendDesiredCount = "backend_desired_count"
)

var knownKeys = []string{
	KeyHostedZoneID,
	KeyHostedZoneName,
	KeyCognitoCustomDomain,
	KeyApplicationDNSName,
	KeyBackendDesiredCount,
}

var (
	// ErrMissing marks a required key that is absent from the file.
	ErrMissing = errors.New("missing")
	// ErrMalformed marks a key whose value cannot be used.
	ErrMalformed = errors.New("malformed")
	// ErrUnknown marks a key that is not part of the configuration.
	ErrUnknown = errors.New("unknown key")
)

// Cognito hosted UI prefixes: lowercase alphanumerics and inner hyphens.
var domainPrefixRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// FieldError reports a problem with a single configuration key.
type FieldError struct {
	Key    string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config: %s: %v: %s", e.Key, e.Err, e.Detail)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Deployment holds the settings consumed by the provisioners. It is loaded once
// and treated as immutable.
type Deployment struct {
	HostedZoneID        string
	HostedZoneName      string
	CognitoCustomDomain string
	ApplicationDNSName  string
	BackendDesiredCount int
}

// Section and key names are matched case-insensitively.
var loadOptions = ini.LoadOptions{Insensitive: true}

// Load reads the deployment configuration from an INI file on disk.
func Load(path string) (*Deployment, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return fromFile(f)
}

// Parse reads the deployment configuration from INI text.
func Parse(data []byte) (*Deployment, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("config: invalid INI: %w", err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Deployment, error) {
	sec, err := f.GetSection(SectionName)
	if err != nil {
		return nil, fmt.Errorf("config: section [%s] not found", SectionName)
	}

	var errs []error
	d := &Deployment{}
	d.HostedZoneID = requireString(sec, KeyHostedZoneID, &errs)
	d.HostedZoneName = strings.TrimSuffix(requireString(sec, KeyHostedZoneName, &errs), ".")
	d.CognitoCustomDomain = requireString(sec, KeyCognitoCustomDomain, &errs)
	d.ApplicationDNSName = strings.TrimSuffix(requireString(sec, KeyApplicationDNSName, &errs), ".")
	d.BackendDesiredCount = requireCount(sec, KeyBackendDesiredCount, &errs)

	if d.CognitoCustomDomain != "" && !ValidDomainPrefix(d.CognitoCustomDomain) {
		errs = append(errs, &FieldError{Key: KeyCognitoCustomDomain, Err: ErrMalformed, Detail: "must be lowercase letters, digits and inner hyphens"})
	}
	if d.ApplicationDNSName != "" && d.HostedZoneName != "" && !InZone(d.ApplicationDNSName, d.HostedZoneName) {
		errs = append(errs, &FieldError{Key: KeyApplicationDNSName, Err: ErrMalformed, Detail: fmt.Sprintf("%q is not within hosted zone %q", d.ApplicationDNSName, d.HostedZoneName)})
	}

	known := map[string]struct{}{}
	for _, k := range knownKeys {
		known[k] = struct{}{}
	}
	unknown := []string{}
	for _, k := range sec.KeyStrings() {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		errs = append(errs, &FieldError{Key: k, Err: ErrUnknown})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return d, nil
}

func requireString(sec *ini.Section, key string, errs *[]error) string {
	if !sec.HasKey(key) {
		*errs = append(*errs, &FieldError{Key: key, Err: ErrMissing})
		return ""
	}
	v := strings.TrimSpace(sec.Key(key).String())
	if v == "" {
		*errs = append(*errs, &FieldError{Key: key, Err: ErrMalformed, Detail: "must not be empty"})
	}
	return v
}

func requireCount(sec *ini.Section, key string, errs *[]error) int {
	raw := requireString(sec, key, errs)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		*errs = append(*errs, &FieldError{Key: key, Err: ErrMalformed, Detail: fmt.Sprintf("want a non-negative integer, got %q", raw)})
		return 0
	}
	return n
}

// ValidDomainPrefix reports whether s can be used as a hosted UI domain prefix.
func ValidDomainPrefix(s string) bool { return domainPrefixRe.MatchString(s) }

// InZone reports whether name is zone itself or a name below it.
func InZone(name, zone string) bool {
	name = strings.ToLower(name)
	zone = strings.ToLower(zone)
	return name == zone || strings.HasSuffix(name, "."+zone)
}

// ApplicationURL is the public HTTPS origin of the demo application.
func (d *Deployment) ApplicationURL() string { return "https://" + d.ApplicationDNSName }

// CallbackURLs are the redirect targets Cognito accepts after login: the ALB
// endpoint that consumes the authorization code, and the site root so the
// hosted UI can send the user back after logout.
func (d *Deployment) CallbackURLs() []string {
	return []string{d.DefaultRedirectURI(), d.ApplicationURL()}
}

// LogoutURLs are the sign-out redirect targets registered on the client.
func (d *Deployment) LogoutURLs() []string { return []string{d.ApplicationURL()} }

// DefaultRedirectURI is used when the login page is reached without a redirect_uri.
func (d *Deployment) DefaultRedirectURI() string { return d.ApplicationURL() + "/oauth2/idpresponse" }

// CognitoBaseURL is the hosted UI origin for the configured domain prefix.
func (d *Deployment) CognitoBaseURL(region string) string {
	return fmt.Sprintf("https://%s.auth.%s.amazoncognito.com", d.CognitoCustomDomain, region)
}

// LogoutURL builds the hosted UI logout endpoint that redirects back to the login page.
func (d *Deployment) LogoutURL(region, clientID string) string {
	return fmt.Sprintf("%s/logout?client_id=%s&response_type=code&state=STATE&scope=openid&redirect_uri=%s",
		d.CognitoBaseURL(region), url.QueryEscape(clientID), url.QueryEscape(d.ApplicationURL()))
}

// UserInfoURL is the OIDC userinfo endpoint of the hosted UI.
func (d *Deployment) UserInfoURL(region string) string {
	return d.CognitoBaseURL(region) + "/oauth2/userInfo"
}

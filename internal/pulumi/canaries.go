package provider

import (
	"fmt"
	"os"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/common"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
)

// defaultCanaryFile is picked up when present and no canaryFile is given.
const defaultCanaryFile = "./canaries/presignup.yaml"

// exportCanaryStatus runs the post-deploy canaries once every id they need is
// known and exports the result as <name>-canary.
func exportCanaryStatus(ctx *pulumi.Context, name, region string, plan *Plan, id *identity, e *edge, canaryFile string) {
	canaryPath := absPath(resolveCanaryFile(canaryFile))
	deps := toOutputs(id.hook.Name, id.pool.ID().ToStringOutput(), id.client.ID().ToStringOutput(), e.httpsListener.Arn, e.rule.Arn)
	status := pulumi.All(outputsToInterfaces(deps)...).ApplyT(func(args []interface{}) (string, error) {
		if ctx.DryRun() {
			return "skipped during preview", nil
		}
		t := common.Targets{
			HookFunctionName:   args[0].(string),
			UserPoolID:         args[1].(string),
			ClientID:           args[2].(string),
			ListenerArn:        args[3].(string),
			HostHeader:         plan.Edge.ApplicationDNSName,
			CallbackURLs:       plan.Identity.CallbackURLs,
			LogoutURLs:         plan.Identity.LogoutURLs,
			DefaultRedirectURI: plan.Identity.DefaultRedirectURI,
		}
		if t.HookFunctionName == "" || t.UserPoolID == "" || t.ListenerArn == "" {
			return "", fmt.Errorf("failed to resolve resource ids for canary execution")
		}
		logger := &engineLogger{ctx: ctx}
		if err := common.RunPostDeployCanaries(ctx.Context(), region, t, canaryPath, logger); err != nil {
			return "", err
		}
		return "ok", nil
	}).(pulumi.StringOutput)
	ctx.Export(fmt.Sprintf("%s-canary", name), status)
}

func resolveCanaryFile(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultCanaryFile); err == nil {
		return defaultCanaryFile
	}
	return ""
}

// engineLogger forwards library logs to the Pulumi engine.
type engineLogger struct {
	ctx *pulumi.Context
}

func (l *engineLogger) Debug(msg string, f logging.Fields) {
	_ = l.ctx.Log.Debug(format(msg, f), &pulumi.LogArgs{})
}

func (l *engineLogger) Info(msg string, f logging.Fields) {
	_ = l.ctx.Log.Info(format(msg, f), &pulumi.LogArgs{})
}

func (l *engineLogger) Warn(msg string, f logging.Fields) {
	_ = l.ctx.Log.Warn(format(msg, f), &pulumi.LogArgs{})
}

func format(msg string, f logging.Fields) string {
	if len(f) == 0 {
		return msg
	}
	return fmt.Sprintf("%s %v", msg, map[string]any(f))
}

var _ logging.Logger = (*engineLogger)(nil)

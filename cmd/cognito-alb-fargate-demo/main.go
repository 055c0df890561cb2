// Command cognito-alb-fargate-demo is the Pulumi program that deploys the
// demo environment described by a deployment configuration file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	pulumiconfig "github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
	provider "github.com/mikecbrant/cognito-alb-fargate-demo/internal/pulumi"
)

const (
	defaultConfigFile  = "config.ini"
	defaultHookArchive = "bin/auto-confirm.zip"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg := pulumiconfig.New(ctx, "")
		root := ctx.RootDirectory()

		d, err := config.Load(resolve(root, orDefault(cfg.Get("configFile"), defaultConfigFile)))
		if err != nil {
			return err
		}
		args, err := stackArgs(d, cfg.Get, root)
		if err != nil {
			return err
		}

		stack, err := provider.NewDemoStack(ctx, ctx.Stack(), args)
		if err != nil {
			return err
		}
		ctx.Export("userPoolId", stack.UserPoolID)
		ctx.Export("userPoolArn", stack.UserPoolArn)
		ctx.Export("userPoolClientId", stack.UserPoolClientID)
		ctx.Export("userPoolDomain", stack.UserPoolDomain)
		ctx.Export("hookFunctionArn", stack.HookFunctionArn)
		ctx.Export("loadBalancerDnsName", stack.LoadBalancerDNSName)
		ctx.Export("applicationUrl", stack.ApplicationURL)
		ctx.Export("logoutUrl", stack.LogoutURL)
		ctx.Export("userInfoUrl", stack.UserInfoURL)
		ctx.Export("repositoryUrl", stack.RepositoryURL)
		ctx.Export("serviceName", stack.ServiceName)
		return nil
	})
}

// stackArgs combines the deployment file with the stack configuration.
// Relative paths are resolved against root, the project directory.
func stackArgs(d *config.Deployment, get func(key string) string, root string) (provider.DemoStackArgs, error) {
	args := provider.ArgsFromDeployment(d)

	args.HookArchive = resolve(root, orDefault(get("hookArchive"), defaultHookArchive))
	if _, err := os.Stat(args.HookArchive); err != nil {
		return args, fmt.Errorf("hook archive %s: %w (build it with `make hook`)", args.HookArchive, err)
	}

	if img := get("image"); img != "" {
		args.Image = &img
	} else {
		buildContext := resolve(root, orDefault(get("buildContext"), "."))
		args.BuildContext = &buildContext
		if f := get("dockerfile"); f != "" {
			f = resolve(root, f)
			args.Dockerfile = &f
		}
	}

	for key, dst := range map[string]**bool{"runCanaries": &args.RunCanaries, "retainOnDelete": &args.RetainOnDelete} {
		v := get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return args, fmt.Errorf("config %s: %w", key, err)
		}
		*dst = &b
	}
	if f := get("canaryFile"); f != "" {
		f = resolve(root, f)
		args.CanaryFile = &f
	}

	if raw := get("emailSender"); raw != "" {
		var sender provider.EmailSenderArgs
		if err := json.Unmarshal([]byte(raw), &sender); err != nil {
			return args, fmt.Errorf("config emailSender: %w", err)
		}
		args.EmailSender = &sender
	}
	return args, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

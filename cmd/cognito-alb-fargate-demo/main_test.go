package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

func testDeployment() *config.Deployment {
	return &config.Deployment{
		HostedZoneID:        "Z0123456789",
		HostedZoneName:      "example.com",
		CognitoCustomDomain: "demo-auth",
		ApplicationDNSName:  "demo.example.com",
		BackendDesiredCount: 1,
	}
}

// projectRoot returns a directory holding the default hook archive.
func projectRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, defaultHookArchive), []byte("zip"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func getter(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestStackArgs_Defaults(t *testing.T) {
	root := projectRoot(t)
	args, err := stackArgs(testDeployment(), getter(nil), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.HookArchive != filepath.Join(root, "bin", "auto-confirm.zip") {
		t.Fatalf("HookArchive = %q", args.HookArchive)
	}
	if args.Image != nil || args.BuildContext == nil || *args.BuildContext != root {
		t.Fatalf("expected an image build from %s, got image=%v context=%v", root, args.Image, args.BuildContext)
	}
	if args.RetainOnDelete != nil || args.RunCanaries != nil || args.EmailSender != nil {
		t.Fatalf("optional settings must stay unset: %+v", args)
	}
	if args.CognitoCustomDomain != "demo-auth" || args.BackendDesiredCount != 1 {
		t.Fatalf("deployment fields not copied: %+v", args)
	}
}

func TestStackArgs_AllKeys(t *testing.T) {
	root := projectRoot(t)
	args, err := stackArgs(testDeployment(), getter(map[string]string{
		"image":          "public.ecr.aws/demo/webapp:1",
		"retainOnDelete": "true",
		"runCanaries":    "true",
		"canaryFile":     "canaries/extra.yaml",
		"emailSender":    `{"sourceArn":"arn:aws:ses:us-east-1:123456789012:identity/example.com","from":"no-reply@example.com","replyTo":"help@example.com"}`,
	}), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Image == nil || *args.Image != "public.ecr.aws/demo/webapp:1" || args.BuildContext != nil {
		t.Fatalf("explicit image must skip the build: %+v", args)
	}
	if args.RetainOnDelete == nil || !*args.RetainOnDelete || args.RunCanaries == nil || !*args.RunCanaries {
		t.Fatalf("boolean keys not read: %+v", args)
	}
	if *args.CanaryFile != filepath.Join(root, "canaries", "extra.yaml") {
		t.Fatalf("CanaryFile = %q", *args.CanaryFile)
	}
	s := args.EmailSender
	if s == nil || s.From != "no-reply@example.com" || s.ReplyTo == nil || *s.ReplyTo != "help@example.com" || s.ConfigurationSet != nil {
		t.Fatalf("emailSender = %+v", s)
	}
}

func TestStackArgs_Errors(t *testing.T) {
	root := projectRoot(t)
	cases := map[string]struct {
		values map[string]string
		want   string
	}{
		"missing hook archive": {map[string]string{"hookArchive": "nope.zip"}, "make hook"},
		"bad bool":             {map[string]string{"retainOnDelete": "sometimes"}, "config retainOnDelete"},
		"bad sender":           {map[string]string{"emailSender": "{"}, "config emailSender"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stackArgs(testDeployment(), getter(tc.values), root)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

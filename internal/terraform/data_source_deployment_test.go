package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	tftest "github.com/hashicorp/terraform-plugin-testing/helper/resource"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

const sampleINI = `[main]
hosted_zone_id = Z0123456789
hosted_zone_name = example.com
cognito_custom_domain = demo-auth
application_dns_name = demo.example.com
backend_desired_count = 2
`

func TestDeploymentDataSource_Schema(t *testing.T) {
	var resp datasource.SchemaResponse
	NewDeploymentDataSource().Schema(context.Background(), datasource.SchemaRequest{}, &resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("schema diagnostics: %v", resp.Diagnostics)
	}
	attrs := resp.Schema.Attributes
	if !attrs["config_file"].IsRequired() {
		t.Fatalf("config_file must be required")
	}
	if !attrs["region"].IsOptional() {
		t.Fatalf("region must be optional")
	}
	for _, k := range []string{
		"hosted_zone_id", "hosted_zone_name", "cognito_custom_domain", "application_dns_name",
		"backend_desired_count", "application_url", "callback_urls", "logout_urls",
		"default_redirect_uri", "cognito_base_url", "user_info_url",
	} {
		a, ok := attrs[k]
		if !ok || !a.IsComputed() {
			t.Errorf("expected computed attribute %q", k)
		}
	}
}

func TestDeploymentDataSource_Metadata(t *testing.T) {
	var resp datasource.MetadataResponse
	NewDeploymentDataSource().Metadata(context.Background(), datasource.MetadataRequest{ProviderTypeName: TypeName}, &resp)
	if resp.TypeName != "cognitoalb_deployment" {
		t.Fatalf("TypeName = %q", resp.TypeName)
	}
}

func TestFillModel(t *testing.T) {
	dep, err := config.Parse([]byte(sampleINI))
	if err != nil {
		t.Fatal(err)
	}
	var m deploymentModel
	if d := fillModel(context.Background(), &m, dep, "eu-west-1"); d.HasError() {
		t.Fatalf("diagnostics: %v", d)
	}
	if m.ApplicationURL.ValueString() != "https://demo.example.com" {
		t.Fatalf("application_url = %q", m.ApplicationURL.ValueString())
	}
	if m.CognitoBaseURL.ValueString() != "https://demo-auth.auth.eu-west-1.amazoncognito.com" {
		t.Fatalf("cognito_base_url = %q", m.CognitoBaseURL.ValueString())
	}
	if m.BackendDesiredCount.ValueInt64() != 2 {
		t.Fatalf("backend_desired_count = %d", m.BackendDesiredCount.ValueInt64())
	}
	var cb []string
	if d := m.CallbackURLs.ElementsAs(context.Background(), &cb, false); d.HasError() {
		t.Fatalf("callback_urls: %v", d)
	}
	if strings.Join(cb, " ") != "https://demo.example.com/oauth2/idpresponse https://demo.example.com" {
		t.Fatalf("callback_urls = %v", cb)
	}
}

func TestAddConfigDiagnostics_OnePerKey(t *testing.T) {
	_, err := config.Parse([]byte("[main]\nhosted_zone_id = Z\nextra = 1\n"))
	if err == nil {
		t.Fatalf("expected config errors")
	}
	var diags diag.Diagnostics
	addConfigDiagnostics(&diags, err)
	if diags.ErrorsCount() < 5 {
		t.Fatalf("expected a diagnostic per key, got %d: %v", diags.ErrorsCount(), diags)
	}
	var summaries []string
	for _, d := range diags.Errors() {
		summaries = append(summaries, d.Summary())
	}
	joined := strings.Join(summaries, "|")
	for _, want := range []string{"Invalid hosted_zone_name", "Invalid backend_desired_count", "Invalid extra"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %s", want, joined)
		}
	}

	diags = nil
	addConfigDiagnostics(&diags, errors.New("config: failed to read x.ini"))
	if diags.ErrorsCount() != 1 || diags.Errors()[0].Summary() != "Invalid configuration file" {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
}

func TestAcc_Deployment_basic(t *testing.T) {
	if os.Getenv("TF_ACC") == "" {
		t.Skip("set TF_ACC to run acceptance tests (requires a terraform binary)")
	}
	p := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(p, []byte(sampleINI), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := fmt.Sprintf(`
provider "cognitoalb" {}
data "cognitoalb_deployment" "test" {
  config_file = %q
  region      = "eu-central-1"
}
`, p)
	tftest.Test(t, tftest.TestCase{
		ProtoV6ProviderFactories: map[string]func() (tfprotov6.ProviderServer, error){
			TypeName: providerserver.NewProtocol6WithError(New("dev")()),
		},
		Steps: []tftest.TestStep{{
			Config: cfg,
			Check: tftest.ComposeAggregateTestCheckFunc(
				tftest.TestCheckResourceAttr("data.cognitoalb_deployment.test", "application_url", "https://demo.example.com"),
				tftest.TestCheckResourceAttr("data.cognitoalb_deployment.test", "callback_urls.#", "2"),
				tftest.TestCheckResourceAttr("data.cognitoalb_deployment.test", "user_info_url", "https://demo-auth.auth.eu-central-1.amazoncognito.com/oauth2/userInfo"),
				tftest.TestCheckResourceAttr("data.cognitoalb_deployment.test", "backend_desired_count", "2"),
			),
		}},
	})
}

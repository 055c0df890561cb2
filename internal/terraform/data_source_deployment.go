package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

const defaultRegion = "us-east-1"

var _ datasource.DataSource = (*deploymentDataSource)(nil)

// NewDeploymentDataSource exposes a validated deployment configuration file
// and the URLs derived from it.
func NewDeploymentDataSource() datasource.DataSource { return &deploymentDataSource{} }

type deploymentDataSource struct{}

type deploymentModel struct {
	ID                  types.String `tfsdk:"id"`
	ConfigFile          types.String `tfsdk:"config_file"`
	Region              types.String `tfsdk:"region"`
	HostedZoneID        types.String `tfsdk:"hosted_zone_id"`
	HostedZoneName      types.String `tfsdk:"hosted_zone_name"`
	CognitoCustomDomain types.String `tfsdk:"cognito_custom_domain"`
	ApplicationDNSName  types.String `tfsdk:"application_dns_name"`
	BackendDesiredCount types.Int64  `tfsdk:"backend_desired_count"`
	ApplicationURL      types.String `tfsdk:"application_url"`
	CallbackURLs        types.List   `tfsdk:"callback_urls"`
	LogoutURLs          types.List   `tfsdk:"logout_urls"`
	DefaultRedirectURI  types.String `tfsdk:"default_redirect_uri"`
	CognitoBaseURL      types.String `tfsdk:"cognito_base_url"`
	UserInfoURL         types.String `tfsdk:"user_info_url"`
}

func (d *deploymentDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_deployment"
}

func (d *deploymentDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	computed := func(desc string) schema.StringAttribute {
		return schema.StringAttribute{Computed: true, Description: desc}
	}
	resp.Schema = schema.Schema{
		Description: "Reads and validates a deployment configuration file ([main] section) and derives the URLs registered on the Cognito app client.",
		Attributes: map[string]schema.Attribute{
			"id":                    computed("Absolute path of the configuration file."),
			"config_file":           schema.StringAttribute{Required: true, Description: "Path to the INI configuration file."},
			"region":                schema.StringAttribute{Optional: true, Computed: true, Description: "Region of the user pool; defaults to us-east-1."},
			"hosted_zone_id":        computed("Route 53 hosted zone id."),
			"hosted_zone_name":      computed("Route 53 hosted zone name."),
			"cognito_custom_domain": computed("Hosted UI domain prefix."),
			"application_dns_name":  computed("Public DNS name of the application."),
			"backend_desired_count": schema.Int64Attribute{Computed: true, Description: "Number of backend tasks."},
			"application_url":       computed("HTTPS origin of the application."),
			"callback_urls":         schema.ListAttribute{Computed: true, ElementType: types.StringType, Description: "Callback URLs of the app client."},
			"logout_urls":           schema.ListAttribute{Computed: true, ElementType: types.StringType, Description: "Logout URLs of the app client."},
			"default_redirect_uri":  computed("Default redirect URI of the app client."),
			"cognito_base_url":      computed("Hosted UI origin."),
			"user_info_url":         computed("OIDC userinfo endpoint."),
		},
	}
}

func (d *deploymentDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var m deploymentModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &m)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dep, err := config.Load(m.ConfigFile.ValueString())
	if err != nil {
		addConfigDiagnostics(&resp.Diagnostics, err)
		return
	}
	region := m.Region.ValueString()
	if region == "" {
		region = defaultRegion
	}
	m.Region = types.StringValue(region)
	m.ID = types.StringValue(absPath(m.ConfigFile.ValueString()))
	resp.Diagnostics.Append(fillModel(ctx, &m, dep, region)...)
	if resp.Diagnostics.HasError() {
		return
	}
	resp.Diagnostics.Append(resp.State.Set(ctx, &m)...)
}

func fillModel(ctx context.Context, m *deploymentModel, dep *config.Deployment, region string) diag.Diagnostics {
	var diags diag.Diagnostics
	m.HostedZoneID = types.StringValue(dep.HostedZoneID)
	m.HostedZoneName = types.StringValue(dep.HostedZoneName)
	m.CognitoCustomDomain = types.StringValue(dep.CognitoCustomDomain)
	m.ApplicationDNSName = types.StringValue(dep.ApplicationDNSName)
	m.BackendDesiredCount = types.Int64Value(int64(dep.BackendDesiredCount))
	m.ApplicationURL = types.StringValue(dep.ApplicationURL())
	m.DefaultRedirectURI = types.StringValue(dep.DefaultRedirectURI())
	m.CognitoBaseURL = types.StringValue(dep.CognitoBaseURL(region))
	m.UserInfoURL = types.StringValue(dep.UserInfoURL(region))

	var d diag.Diagnostics
	m.CallbackURLs, d = types.ListValueFrom(ctx, types.StringType, dep.CallbackURLs())
	diags.Append(d...)
	m.LogoutURLs, d = types.ListValueFrom(ctx, types.StringType, dep.LogoutURLs())
	diags.Append(d...)
	return diags
}

// addConfigDiagnostics reports one diagnostic per offending key.
func addConfigDiagnostics(diags *diag.Diagnostics, err error) {
	var joined interface{ Unwrap() []error }
	errs := []error{err}
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var fe *config.FieldError
		if errors.As(e, &fe) {
			diags.AddAttributeError(path.Root("config_file"), fmt.Sprintf("Invalid %s", fe.Key), fe.Error())
			continue
		}
		diags.AddAttributeError(path.Root("config_file"), "Invalid configuration file", e.Error())
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

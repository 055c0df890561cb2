package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validINI = `[main]
hosted_zone_id = Z0123456789ABC
hosted_zone_name = example.com
cognito_custom_domain = demo-login
application_dns_name = demo.example.com
backend_desired_count = 2
`

func TestLoad_AllKeysPresent_ReturnsDeployment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuration.ini")
	if err := os.WriteFile(path, []byte(validINI), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.HostedZoneID != "Z0123456789ABC" {
		t.Errorf("HostedZoneID = %q", d.HostedZoneID)
	}
	if d.HostedZoneName != "example.com" {
		t.Errorf("HostedZoneName = %q", d.HostedZoneName)
	}
	if d.CognitoCustomDomain != "demo-login" {
		t.Errorf("CognitoCustomDomain = %q", d.CognitoCustomDomain)
	}
	if d.ApplicationDNSName != "demo.example.com" {
		t.Errorf("ApplicationDNSName = %q", d.ApplicationDNSName)
	}
	if d.BackendDesiredCount != 2 {
		t.Errorf("BackendDesiredCount = %d, want 2", d.BackendDesiredCount)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.ini")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParse_MissingSection(t *testing.T) {
	_, err := Parse([]byte("[other]\nhosted_zone_id = x\n"))
	if err == nil || !strings.Contains(err.Error(), "[main]") {
		t.Fatalf("expected missing section error, got %v", err)
	}
}

func TestParse_EachMissingKeyIsNamed(t *testing.T) {
	for _, key := range knownKeys {
		t.Run(key, func(t *testing.T) {
			var kept []string
			for _, line := range strings.Split(validINI, "\n") {
				if strings.HasPrefix(line, key+" ") {
					continue
				}
				kept = append(kept, line)
			}
			_, err := Parse([]byte(strings.Join(kept, "\n")))
			if err == nil {
				t.Fatalf("expected error when %s is missing", key)
			}
			if !errors.Is(err, ErrMissing) {
				t.Fatalf("expected ErrMissing, got %v", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Key != key {
				t.Fatalf("expected FieldError for %s, got %v", key, err)
			}
		})
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte("[main]\nhosted_zone_id = Z1\n"))
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{KeyHostedZoneName, KeyCognitoCustomDomain, KeyApplicationDNSName, KeyBackendDesiredCount} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error does not mention %s: %v", key, err)
		}
	}
}

func TestParse_MalformedValues(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		key     string
	}{
		{"count not a number", [2]string{"backend_desired_count = 2", "backend_desired_count = two"}, KeyBackendDesiredCount},
		{"count negative", [2]string{"backend_desired_count = 2", "backend_desired_count = -1"}, KeyBackendDesiredCount},
		{"empty zone id", [2]string{"hosted_zone_id = Z0123456789ABC", "hosted_zone_id ="}, KeyHostedZoneID},
		{"domain prefix uppercase", [2]string{"cognito_custom_domain = demo-login", "cognito_custom_domain = Demo_Login"}, KeyCognitoCustomDomain},
		{"app outside zone", [2]string{"application_dns_name = demo.example.com", "application_dns_name = demo.example.org"}, KeyApplicationDNSName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(strings.Replace(validINI, tt.replace[0], tt.replace[1], 1)))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Key != tt.key {
				t.Fatalf("expected FieldError for %s, got %v", tt.key, err)
			}
		})
	}
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte(validINI + "extra = 1\n"))
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestParse_KeyNamesAreCaseInsensitive(t *testing.T) {
	d, err := Parse([]byte(`[Main]
Hosted_Zone_ID = Z0123456789ABC
HOSTED_ZONE_NAME = example.com
Cognito_Custom_Domain = demo-login
application_DNS_name = demo.example.com
Backend_Desired_Count = 2
`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.HostedZoneID != "Z0123456789ABC" || d.CognitoCustomDomain != "demo-login" || d.BackendDesiredCount != 2 {
		t.Fatalf("unexpected deployment %+v", d)
	}
}

func TestDeployment_DerivedURLs(t *testing.T) {
	d, err := Parse([]byte(validINI))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := d.CallbackURLs(); len(got) != 2 || got[0] != "https://demo.example.com/oauth2/idpresponse" || got[1] != "https://demo.example.com" {
		t.Errorf("CallbackURLs = %v", got)
	}
	if got := d.LogoutURLs(); len(got) != 1 || got[0] != "https://demo.example.com" {
		t.Errorf("LogoutURLs = %v", got)
	}
	if got := d.CognitoBaseURL("eu-central-1"); got != "https://demo-login.auth.eu-central-1.amazoncognito.com" {
		t.Errorf("CognitoBaseURL = %q", got)
	}
	want := "https://demo-login.auth.eu-central-1.amazoncognito.com/logout?client_id=abc123&response_type=code&state=STATE&scope=openid&redirect_uri=https%3A%2F%2Fdemo.example.com"
	if got := d.LogoutURL("eu-central-1", "abc123"); got != want {
		t.Errorf("LogoutURL = %q, want %q", got, want)
	}
	if got := d.UserInfoURL("eu-central-1"); got != "https://demo-login.auth.eu-central-1.amazoncognito.com/oauth2/userInfo" {
		t.Errorf("UserInfoURL = %q", got)
	}
}

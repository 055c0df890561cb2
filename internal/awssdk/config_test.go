package awssdk

import "testing"

func TestPartitionForRegion(t *testing.T) {
	cases := map[string]string{
		"eu-central-1":   "aws",
		"us-east-1":      "aws",
		"":               "aws",
		"cn-north-1":     "aws-cn",
		"us-gov-west-1":  "aws-us-gov",
		"us-iso-east-1":  "aws-iso",
		"us-isob-east-1": "aws-iso-b",
		"eu-isoe-west-1": "aws-iso-e",
	}
	for region, want := range cases {
		if got := PartitionForRegion(region); got != want {
			t.Errorf("PartitionForRegion(%q) = %q, want %q", region, got, want)
		}
	}
}

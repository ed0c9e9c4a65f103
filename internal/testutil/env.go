package testutil

import (
	"os"
	"testing"
)

// CheckAWSEnvVars skips the test unless the environment variables required for
// testing against any AWS API are defined.
func CheckAWSEnvVars(t *testing.T) {
	CheckEnvVars(t,
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_REGION",
	)
}

// CheckAWSEnvVarsForSecretsManager skips the test unless the environment
// variables required for testing against Secrets Manager are defined.
func CheckAWSEnvVarsForSecretsManager(t *testing.T) {
	CheckEnvVars(t,
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_REGION",
		"AWS_SECRET_PREFIX",
	)
}

// CheckEnvVars skips the test unless all the environment variables are set.
func CheckEnvVars(t *testing.T, envVars ...string) {
	var missing []string

	for _, envVar := range envVars {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		t.Skipf("missing required environment variables: %s", missing)
	}
}

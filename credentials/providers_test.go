package credentials_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/nyaws/awsclient/credentials"
)

func TestStaticRetrieveRequiresAccessKeyID(t *testing.T) {
	_, err := credentials.Static{}.Retrieve(context.Background())
	require.Error(t, err)

	v, err := credentials.Static{Value: credentials.Value{AccessKeyID: "AKID", SecretAccessKey: "secret"}}.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "static", v.Source)
}

func TestEnvRetrieveRequiresBothKeys(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := credentials.Env{}.Retrieve(context.Background())
	require.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "token")
	v, err := credentials.Env{}.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKID", v.AccessKeyID)
	require.Equal(t, "token", v.SessionToken)
}

func TestIMDSRetrieveFetchesTokenThenRoleThenCredentials(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/token":
			require.Equal(t, "21600", r.Header.Get("X-aws-ec2-metadata-token-ttl-seconds"))
			w.Write([]byte("imds-v2-token"))
		case r.URL.Path == "/meta-data/iam/security-credentials/":
			gotToken = r.Header.Get("X-aws-ec2-metadata-token")
			w.Write([]byte("my-role\n"))
		case r.URL.Path == "/meta-data/iam/security-credentials/my-role":
			doc, _ := json.Marshal(map[string]interface{}{
				"AccessKeyId":     "AKIDIMDS",
				"SecretAccessKey": "secretIMDS",
				"Token":           "tok",
				"Expiration":      time.Now().Add(time.Hour).Format(time.RFC3339),
			})
			w.Write(doc)
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	provider := credentials.IMDS{Endpoint: srv.URL}
	v, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDIMDS", v.AccessKeyID)
	require.Equal(t, "secretIMDS", v.SecretAccessKey)
	require.Equal(t, "tok", v.SessionToken)
	require.Equal(t, "imds", v.Source)
	require.Equal(t, "imds-v2-token", gotToken)
}

func TestIMDSRetrieveUnreachableIsNotFound(t *testing.T) {
	provider := credentials.IMDS{Endpoint: "http://127.0.0.1:1", Client: &http.Client{Timeout: 100 * time.Millisecond}}
	_, err := provider.Retrieve(context.Background())
	require.Error(t, err)
}

func TestWebIdentityRetrieveParsesTokenAndAssumes(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "system:serviceaccount:default:my-app",
	})
	signed, err := token.SignedString([]byte("unused-signing-key"))
	require.NoError(t, err)

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte(signed), 0o600))

	var gotRole, gotToken string
	provider := credentials.WebIdentity{
		TokenFile: tokenPath,
		RoleARN:   "arn:aws:iam::123456789012:role/my-role",
		Assume: func(ctx context.Context, tok, roleARN string) (credentials.Value, error) {
			gotToken, gotRole = tok, roleARN
			return credentials.Value{AccessKeyID: "AKIDSTS", SecretAccessKey: "secretSTS"}, nil
		},
	}

	v, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDSTS", v.AccessKeyID)
	require.Equal(t, "web-identity", v.Source)
	require.Equal(t, signed, gotToken)
	require.Equal(t, "arn:aws:iam::123456789012:role/my-role", gotRole)
}

func TestSystemPropertyRetrieveRequiresBothKeys(t *testing.T) {
	_, err := credentials.SystemProperty{}.Retrieve(context.Background())
	require.Error(t, err)

	credentials.SetProperty("aws.accessKeyId", "AKIDPROP")
	credentials.SetProperty("aws.secretKey", "secretProp")
	defer func() {
		credentials.SetProperty("aws.accessKeyId", "")
		credentials.SetProperty("aws.secretKey", "")
	}()
	v, err := credentials.SystemProperty{}.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDPROP", v.AccessKeyID)
	require.Equal(t, "system-property", v.Source)
}

func TestSharedProfileReadsAWSProfileEnvWhenProfileFieldEmpty(t *testing.T) {
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(credPath, []byte("[work]\naws_access_key_id = AKIDWORK\naws_secret_access_key = secretWork\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credPath)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "nope-config"))
	t.Setenv("AWS_PROFILE", "work")

	v, err := credentials.SharedProfile{}.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDWORK", v.AccessKeyID)
	require.Equal(t, "shared-profile:work", v.Source)
}

func TestSharedProfileCredentialProcessDecodesStdout(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[profile helper]\ncredential_process = /bin/true\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "nope-credentials"))
	t.Setenv("AWS_CONFIG_FILE", cfgPath)

	doc, _ := json.Marshal(map[string]interface{}{
		"AccessKeyId":     "AKIDPROC",
		"SecretAccessKey": "secretProc",
		"SessionToken":    "tokenProc",
	})
	provider := credentials.SharedProfile{
		Profile: "helper",
		RunCredentialProcess: func(ctx context.Context, command string) ([]byte, error) {
			require.Equal(t, "/bin/true", command)
			return doc, nil
		},
	}
	v, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDPROC", v.AccessKeyID)
	require.Equal(t, "shared-profile:helper:credential-process", v.Source)
}

func TestSharedProfileAssumeRoleResolvesSourceProfileThenAssumes(t *testing.T) {
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials")
	cfgPath := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(credPath, []byte("[base]\naws_access_key_id = AKIDBASE\naws_secret_access_key = secretBase\n"), 0o600))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[profile target]\nrole_arn = arn:aws:iam::111122223333:role/example\nsource_profile = base\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credPath)
	t.Setenv("AWS_CONFIG_FILE", cfgPath)

	var gotRoleARN string
	var gotSourceKey string
	provider := credentials.SharedProfile{
		Profile: "target",
		Assume: func(ctx context.Context, source credentials.Value, roleARN string) (credentials.Value, error) {
			gotSourceKey = source.AccessKeyID
			gotRoleARN = roleARN
			return credentials.Value{AccessKeyID: "AKIDASSUMED", SecretAccessKey: "secretAssumed"}, nil
		},
	}
	v, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDASSUMED", v.AccessKeyID)
	require.Equal(t, "shared-profile:target:assume-role", v.Source)
	require.Equal(t, "AKIDBASE", gotSourceKey)
	require.Equal(t, "arn:aws:iam::111122223333:role/example", gotRoleARN)
}

func TestSharedProfileSSOExchangeReceivesParams(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"[profile portal]\nsso_start_url = https://example.awsapps.com/start\nsso_region = us-east-1\n"+
			"sso_account_id = 111122223333\nsso_role_name = ExampleRole\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "nope-credentials"))
	t.Setenv("AWS_CONFIG_FILE", cfgPath)

	var gotParams credentials.SSOParams
	provider := credentials.SharedProfile{
		Profile: "portal",
		SSOExchange: func(ctx context.Context, p credentials.SSOParams) (credentials.Value, error) {
			gotParams = p
			return credentials.Value{AccessKeyID: "AKIDSSO", SecretAccessKey: "secretSSO"}, nil
		},
	}
	v, err := provider.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDSSO", v.AccessKeyID)
	require.Equal(t, "shared-profile:portal:sso", v.Source)
	require.Equal(t, "https://example.awsapps.com/start", gotParams.StartURL)
	require.Equal(t, "ExampleRole", gotParams.RoleName)
}

func TestSharedProfileRoleArnWithoutAssumeHookIsNotFound(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[profile target]\nrole_arn = arn:aws:iam::111122223333:role/example\nsource_profile = base\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "nope-credentials"))
	t.Setenv("AWS_CONFIG_FILE", cfgPath)

	_, err := credentials.SharedProfile{Profile: "target"}.Retrieve(context.Background())
	require.Error(t, err)
}

func TestECSContainerRetrieveWithoutURIEnvFails(t *testing.T) {
	t.Setenv("AWS_CONTAINER_CREDENTIALS_RELATIVE_URI", "")
	t.Setenv("AWS_CONTAINER_CREDENTIALS_FULL_URI", "")
	_, err := credentials.ECSContainer{}.Retrieve(context.Background())
	require.Error(t, err)
}

func TestECSContainerRetrieveFetchesFromFullURI(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		doc, _ := json.Marshal(map[string]interface{}{
			"AccessKeyId":     "AKIDECS",
			"SecretAccessKey": "secretECS",
			"Token":           "tokenECS",
		})
		w.Write(doc)
	}))
	defer srv.Close()

	t.Setenv("AWS_CONTAINER_CREDENTIALS_FULL_URI", srv.URL)
	t.Setenv("AWS_CONTAINER_AUTHORIZATION_TOKEN", "secret-bearer")

	v, err := credentials.ECSContainer{}.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDECS", v.AccessKeyID)
	require.Equal(t, "ecs-container", v.Source)
	require.Equal(t, "secret-bearer", gotAuth)
}

func TestWebIdentityRetrieveMissingTokenFileIsNotFound(t *testing.T) {
	provider := credentials.WebIdentity{TokenFile: "", Assume: func(ctx context.Context, tok, roleARN string) (credentials.Value, error) {
		return credentials.Value{}, nil
	}}
	_, err := provider.Retrieve(context.Background())
	require.Error(t, err)
}

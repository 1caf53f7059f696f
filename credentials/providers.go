package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nyaws/awsclient/internal/sharedconfig"
)

var (
	propertiesMu sync.RWMutex
	properties   = map[string]string{}
)

// SetProperty sets a system-property-style key. The real AWS SDKs read
// aws.accessKeyId/aws.secretKey/aws.sessionToken from the JVM's system
// properties; a Go process has no equivalent table, so this package-level
// store stands in for it: embedders call SetProperty instead of passing
// -D flags, and SystemProperty.Retrieve reads back from here.
func SetProperty(key, value string) {
	propertiesMu.Lock()
	defer propertiesMu.Unlock()
	properties[key] = value
}

func getProperty(key string) string {
	propertiesMu.RLock()
	defer propertiesMu.RUnlock()
	return properties[key]
}

// Static always returns a fixed credential value; used for explicit
// caller-supplied keys, the first link a chain checks.
type Static struct {
	Value Value
}

func (s Static) Retrieve(ctx context.Context) (Value, error) {
	if s.Value.AccessKeyID == "" {
		return Value{}, NotFound("static")
	}
	v := s.Value
	v.Source = "static"
	return v, nil
}

// Env reads AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN.
type Env struct{}

func (Env) Retrieve(ctx context.Context) (Value, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return Value{}, NotFound("env")
	}
	return Value{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "env",
	}, nil
}

// SystemProperty resolves credentials from the aws.accessKeyId/aws.secretKey
// (and optional aws.sessionToken) system properties set via SetProperty.
type SystemProperty struct{}

func (SystemProperty) Retrieve(ctx context.Context) (Value, error) {
	id := getProperty("aws.accessKeyId")
	secret := getProperty("aws.secretKey")
	if id == "" || secret == "" {
		return Value{}, NotFound("system-property")
	}
	return Value{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    getProperty("aws.sessionToken"),
		Source:          "system-property",
	}, nil
}

// SSOParams carries a profile's sso_* settings to a pluggable SSO token
// exchange, the same collaborator-boundary shape WebIdentity uses for STS.
type SSOParams struct {
	StartURL  string
	Region    string
	AccountID string
	RoleName  string
	Session   string
}

// SharedProfile resolves credentials from the ~/.aws/credentials and
// ~/.aws/config files for the named profile, via internal/sharedconfig.
// Beyond a plain static-key profile it supports the three other shapes the
// shared config format allows: credential_process (an external helper
// whose stdout is the credential JSON document), role_arn+source_profile
// (assumed via the pluggable Assume hook, the same out-of-scope-collaborator
// pattern WebIdentity uses for STS), and sso_* (exchanged via the pluggable
// SSOExchange hook). Assume and SSOExchange are nil by default: a profile
// needing either returns NotFound until the caller supplies one, since
// actually calling STS/the SSO portal is outside this client's model.
type SharedProfile struct {
	Profile              string
	Assume               func(ctx context.Context, source Value, roleARN string) (Value, error)
	SSOExchange          func(ctx context.Context, p SSOParams) (Value, error)
	RunCredentialProcess func(ctx context.Context, command string) ([]byte, error)
}

func (p SharedProfile) Retrieve(ctx context.Context) (Value, error) {
	profile := p.Profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		profile = "default"
	}
	cfg, err := sharedconfig.Load(profile)
	if err != nil {
		return Value{}, NotFound("shared-profile")
	}

	if cfg.CredentialProcess != "" {
		return p.retrieveCredentialProcess(ctx, profile, cfg.CredentialProcess)
	}
	if cfg.RoleARN != "" && cfg.SourceProfile != "" {
		return p.retrieveAssumeRole(ctx, profile, cfg)
	}
	if cfg.SSOStartURL != "" || cfg.SSOSession != "" {
		return p.retrieveSSO(ctx, profile, cfg)
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return Value{}, NotFound("shared-profile")
	}
	return Value{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		Source:          "shared-profile:" + profile,
	}, nil
}

type credentialProcessDocument struct {
	AccessKeyID     string    `json:"AccessKeyId"`
	SecretAccessKey string    `json:"SecretAccessKey"`
	SessionToken    string    `json:"SessionToken"`
	Expiration      time.Time `json:"Expiration"`
}

func (p SharedProfile) retrieveCredentialProcess(ctx context.Context, profile, command string) (Value, error) {
	run := p.RunCredentialProcess
	if run == nil {
		run = runCredentialProcessCommand
	}
	out, err := run(ctx, command)
	if err != nil {
		return Value{}, NotFound("shared-profile:credential-process")
	}
	var doc credentialProcessDocument
	if err := json.Unmarshal(out, &doc); err != nil {
		return Value{}, fmt.Errorf("credentials: credential_process: decode: %w", err)
	}
	if doc.AccessKeyID == "" || doc.SecretAccessKey == "" {
		return Value{}, NotFound("shared-profile:credential-process")
	}
	return Value{
		AccessKeyID:     doc.AccessKeyID,
		SecretAccessKey: doc.SecretAccessKey,
		SessionToken:    doc.SessionToken,
		Expires:         doc.Expiration,
		Source:          "shared-profile:" + profile + ":credential-process",
	}, nil
}

func runCredentialProcessCommand(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).Output()
}

func (p SharedProfile) retrieveAssumeRole(ctx context.Context, profile string, cfg sharedconfig.Profile) (Value, error) {
	if p.Assume == nil {
		return Value{}, NotFound("shared-profile:assume-role")
	}
	source, err := (SharedProfile{
		Profile:              cfg.SourceProfile,
		Assume:               p.Assume,
		SSOExchange:          p.SSOExchange,
		RunCredentialProcess: p.RunCredentialProcess,
	}).Retrieve(ctx)
	if err != nil {
		return Value{}, err
	}
	v, err := p.Assume(ctx, source, cfg.RoleARN)
	if err != nil {
		return Value{}, err
	}
	v.Source = "shared-profile:" + profile + ":assume-role"
	return v, nil
}

func (p SharedProfile) retrieveSSO(ctx context.Context, profile string, cfg sharedconfig.Profile) (Value, error) {
	if p.SSOExchange == nil {
		return Value{}, NotFound("shared-profile:sso")
	}
	v, err := p.SSOExchange(ctx, SSOParams{
		StartURL:  cfg.SSOStartURL,
		Region:    cfg.SSORegion,
		AccountID: cfg.SSOAccountID,
		RoleName:  cfg.SSORoleName,
		Session:   cfg.SSOSession,
	})
	if err != nil {
		return Value{}, err
	}
	v.Source = "shared-profile:" + profile + ":sso"
	return v, nil
}

// IMDS fetches role credentials from the EC2 instance metadata service.
// Endpoint replaces the default metadata root; the same token and
// role-listing requests are made against it. Container credentials
// endpoints are read by ECSContainer, not by IMDS.
type IMDS struct {
	Endpoint string
	Client   *http.Client
}

type imdsDocument struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
	Expiration      time.Time `json:"Expiration"`
}

const imdsTokenTTLSeconds = "21600"

func (i IMDS) Retrieve(ctx context.Context) (Value, error) {
	root := i.Endpoint
	if root == "" {
		root = "http://169.254.169.254/latest"
	}
	client := i.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	token, err := i.fetchToken(ctx, client, root)
	if err != nil {
		return Value{}, NotFound("imds")
	}

	credsRoot := root + "/meta-data/iam/security-credentials/"
	roleList, err := i.fetch(ctx, client, credsRoot, token)
	if err != nil {
		return Value{}, NotFound("imds")
	}
	roleName := strings.SplitN(strings.TrimSpace(string(roleList)), "\n", 2)[0]
	var doc imdsDocument
	body, err := i.fetch(ctx, client, credsRoot+roleName, token)
	if err != nil {
		return Value{}, NotFound("imds")
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Value{}, fmt.Errorf("credentials: imds: decode: %w", err)
	}
	return Value{
		AccessKeyID:     doc.AccessKeyID,
		SecretAccessKey: doc.SecretAccessKey,
		SessionToken:    doc.Token,
		Expires:         doc.Expiration,
		Source:          "imds",
	}, nil
}

// fetchToken performs the IMDSv2 session-token handshake: a PUT to
// /latest/api/token carrying the requested TTL, returning the token every
// subsequent metadata GET must present via X-aws-ec2-metadata-token.
func (i IMDS) fetchToken(ctx context.Context, client *http.Client, root string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, root+"/api/token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-aws-ec2-metadata-token-ttl-seconds", imdsTokenTTLSeconds)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("credentials: imds: token status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (i IMDS) fetch(ctx context.Context, client *http.Client, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-aws-ec2-metadata-token", token)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credentials: imds: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ecsMetadataHost is the fixed link-local host ECS/Fargate tasks reach
// their task-role credentials endpoint through when
// AWS_CONTAINER_CREDENTIALS_RELATIVE_URI names a relative path.
const ecsMetadataHost = "http://169.254.170.2"

// ECSContainer fetches task-role credentials from the ECS/Fargate
// container credentials endpoint, named by
// AWS_CONTAINER_CREDENTIALS_RELATIVE_URI (resolved against the fixed ECS
// metadata host) or AWS_CONTAINER_CREDENTIALS_FULL_URI (an absolute URL,
// e.g. EKS Pod Identity), presenting AWS_CONTAINER_AUTHORIZATION_TOKEN as
// a bearer value when set. Absent both variables, this provider is a
// guaranteed NotFound so it is harmless outside a container environment.
type ECSContainer struct {
	Client *http.Client
}

func (e ECSContainer) Retrieve(ctx context.Context) (Value, error) {
	url := os.Getenv("AWS_CONTAINER_CREDENTIALS_FULL_URI")
	if url == "" {
		if rel := os.Getenv("AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"); rel != "" {
			url = ecsMetadataHost + rel
		}
	}
	if url == "" {
		return Value{}, NotFound("ecs-container")
	}
	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Value{}, err
	}
	if token := os.Getenv("AWS_CONTAINER_AUTHORIZATION_TOKEN"); token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Value{}, NotFound("ecs-container")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Value{}, NotFound("ecs-container")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Value{}, err
	}
	var doc imdsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Value{}, fmt.Errorf("credentials: ecs-container: decode: %w", err)
	}
	return Value{
		AccessKeyID:     doc.AccessKeyID,
		SecretAccessKey: doc.SecretAccessKey,
		SessionToken:    doc.Token,
		Expires:         doc.Expiration,
		Source:          "ecs-container",
	}, nil
}

// WebIdentity exchanges a JWT (e.g. an OIDC/SSO token, such as the one
// EKS projects into a pod) for session credentials via AssumeRoleWithWebIdentity.
// The token is parsed without verification only to reject a malformed JWT
// before it is submitted; its claims are not used. The signature itself is
// validated by AWS STS when the token is submitted, not by this client.
type WebIdentity struct {
	TokenFile string
	RoleARN   string
	Assume    func(ctx context.Context, token, roleARN string) (Value, error)
}

func (w WebIdentity) Retrieve(ctx context.Context) (Value, error) {
	if w.TokenFile == "" || w.Assume == nil {
		return Value{}, NotFound("web-identity")
	}
	raw, err := os.ReadFile(w.TokenFile)
	if err != nil {
		return Value{}, NotFound("web-identity")
	}
	token := string(raw)

	parser := jwt.NewParser()
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Value{}, fmt.Errorf("credentials: web-identity: parse token: %w", err)
	}

	v, err := w.Assume(ctx, token, w.RoleARN)
	if err != nil {
		return Value{}, err
	}
	v.Source = "web-identity"
	return v, nil
}

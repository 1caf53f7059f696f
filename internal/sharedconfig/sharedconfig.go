// Package sharedconfig reads one named profile from ~/.aws/credentials and
// ~/.aws/config: a setting in the credentials file's section wins, and a
// setting absent there is read from the config file's section. The
// [default] section is not used as a fallback for other profiles. Real INI
// parsing is delegated to gopkg.in/ini.v1 rather than hand-rolled, since
// the AWS shared-config grammar (continuation lines, profile sections
// named "profile foo" in config but just "foo" in credentials) is full
// INI, not a toy subset.
package sharedconfig

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"
)

// Profile is the resolved settings for one named profile.
type Profile struct {
	AccessKeyID       string
	SecretAccessKey   string
	SessionToken      string
	Region            string
	RoleARN           string
	SourceProfile     string
	CredentialProcess string
	SSOStartURL       string
	SSORegion         string
	SSOAccountID      string
	SSORoleName       string
	SSOSession        string
}

// Load resolves profile by reading the credentials file and, where a
// setting is absent there, falling back to the config file's
// "profile <name>" section (or "profile default" -> "default").
func Load(profile string) (Profile, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return Profile{}, err
	}
	cfgPath, err := configPath()
	if err != nil {
		return Profile{}, err
	}

	var out Profile
	if f, err := ini.Load(credPath); err == nil {
		applySection(&out, f.Section(profile))
	}

	cfgSectionName := profile
	if profile != "default" {
		cfgSectionName = "profile " + profile
	}
	if f, err := ini.Load(cfgPath); err == nil {
		applySection(&out, f.Section(cfgSectionName))
	}

	return out, nil
}

func applySection(p *Profile, sec *ini.Section) {
	if sec == nil {
		return
	}
	setIfEmpty(&p.AccessKeyID, sec.Key("aws_access_key_id").String())
	setIfEmpty(&p.SecretAccessKey, sec.Key("aws_secret_access_key").String())
	setIfEmpty(&p.SessionToken, sec.Key("aws_session_token").String())
	setIfEmpty(&p.Region, sec.Key("region").String())
	setIfEmpty(&p.RoleARN, sec.Key("role_arn").String())
	setIfEmpty(&p.SourceProfile, sec.Key("source_profile").String())
	setIfEmpty(&p.CredentialProcess, sec.Key("credential_process").String())
	setIfEmpty(&p.SSOStartURL, sec.Key("sso_start_url").String())
	setIfEmpty(&p.SSORegion, sec.Key("sso_region").String())
	setIfEmpty(&p.SSOAccountID, sec.Key("sso_account_id").String())
	setIfEmpty(&p.SSORoleName, sec.Key("sso_role_name").String())
	setIfEmpty(&p.SSOSession, sec.Key("sso_session").String())
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func credentialsPath() (string, error) {
	if p := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); p != "" {
		return p, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aws", "credentials"), nil
}

func configPath() (string, error) {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aws", "config"), nil
}

package inst

import "github.com/kardianos/catinstall/cdef"

// messages is the translation table of a bundle. Missing entries keep the English text.
type messages struct {
	Quit                 string `yaml:"quit,omitempty" cbor:"1,keyasint,omitempty"`
	UsernamePrompt       string `yaml:"username_prompt,omitempty" cbor:"2,keyasint,omitempty"`
	EnterPassword        string `yaml:"enter_password,omitempty" cbor:"3,keyasint,omitempty"`
	EnterImportPassword  string `yaml:"enter_import_password,omitempty" cbor:"4,keyasint,omitempty"`
	IncorrectPassword    string `yaml:"incorrect_password,omitempty" cbor:"5,keyasint,omitempty"`
	RepeatPassword       string `yaml:"repeat_password,omitempty" cbor:"6,keyasint,omitempty"`
	PasswordsDiffer      string `yaml:"passwords_differ,omitempty" cbor:"7,keyasint,omitempty"`
	InstallationFinished string `yaml:"installation_finished,omitempty" cbor:"8,keyasint,omitempty"`
	StateDirExists       string `yaml:"state_dir_exists,omitempty" cbor:"9,keyasint,omitempty"`
	Continue             string `yaml:"continue,omitempty" cbor:"10,keyasint,omitempty"`
	ServiceNotSupported  string `yaml:"service_not_supported,omitempty" cbor:"11,keyasint,omitempty"`
	TrustAnchorMissing   string `yaml:"trust_anchor_missing,omitempty" cbor:"12,keyasint,omitempty"`
	UnknownVersion       string `yaml:"unknown_version,omitempty" cbor:"13,keyasint,omitempty"`
	ServiceError         string `yaml:"service_error,omitempty" cbor:"14,keyasint,omitempty"`
	Yes                  string `yaml:"yes,omitempty" cbor:"15,keyasint,omitempty"`
	No                   string `yaml:"no,omitempty" cbor:"16,keyasint,omitempty"`
	P12Filter            string `yaml:"p12_filter,omitempty" cbor:"17,keyasint,omitempty"`
	AllFilter            string `yaml:"all_filter,omitempty" cbor:"18,keyasint,omitempty"`
	P12Title             string `yaml:"p12_title,omitempty" cbor:"19,keyasint,omitempty"`
	SaveSupplicantConf   string `yaml:"save_supplicant_conf,omitempty" cbor:"20,keyasint,omitempty"`
	SaveSupplicantOK     string `yaml:"save_supplicant_ok,omitempty" cbor:"21,keyasint,omitempty"`
	WrongUsernameFormat  string `yaml:"wrong_username_format,omitempty" cbor:"22,keyasint,omitempty"`
	WrongRealm           string `yaml:"wrong_realm,omitempty" cbor:"23,keyasint,omitempty"`
	WrongRealmSuffix     string `yaml:"wrong_realm_suffix,omitempty" cbor:"24,keyasint,omitempty"`
	UserCertMissing      string `yaml:"user_cert_missing,omitempty" cbor:"25,keyasint,omitempty"`
	IdentityUnavailable  string `yaml:"identity_unavailable,omitempty" cbor:"26,keyasint,omitempty"`
	FileNotFound         string `yaml:"file_not_found,omitempty" cbor:"27,keyasint,omitempty"`
}

func (m messages) messages() cdef.Messages {
	return cdef.Messages{
		Quit:                 m.Quit,
		UsernamePrompt:       m.UsernamePrompt,
		EnterPassword:        m.EnterPassword,
		EnterImportPassword:  m.EnterImportPassword,
		IncorrectPassword:    m.IncorrectPassword,
		RepeatPassword:       m.RepeatPassword,
		PasswordsDiffer:      m.PasswordsDiffer,
		InstallationFinished: m.InstallationFinished,
		StateDirExists:       m.StateDirExists,
		Continue:             m.Continue,
		ServiceNotSupported:  m.ServiceNotSupported,
		TrustAnchorMissing:   m.TrustAnchorMissing,
		UnknownVersion:       m.UnknownVersion,
		ServiceError:         m.ServiceError,
		Yes:                  m.Yes,
		No:                   m.No,
		P12Filter:            m.P12Filter,
		AllFilter:            m.AllFilter,
		P12Title:             m.P12Title,
		SaveSupplicantConf:   m.SaveSupplicantConf,
		SaveSupplicantOK:     m.SaveSupplicantOK,
		WrongUsernameFormat:  m.WrongUsernameFormat,
		WrongRealm:           m.WrongRealm,
		WrongRealmSuffix:     m.WrongRealmSuffix,
		UserCertMissing:      m.UserCertMissing,
		IdentityUnavailable:  m.IdentityUnavailable,
		FileNotFound:         m.FileNotFound,
	}
}

func fromMessages(c cdef.Messages) messages {
	return messages{
		Quit:                 c.Quit,
		UsernamePrompt:       c.UsernamePrompt,
		EnterPassword:        c.EnterPassword,
		EnterImportPassword:  c.EnterImportPassword,
		IncorrectPassword:    c.IncorrectPassword,
		RepeatPassword:       c.RepeatPassword,
		PasswordsDiffer:      c.PasswordsDiffer,
		InstallationFinished: c.InstallationFinished,
		StateDirExists:       c.StateDirExists,
		Continue:             c.Continue,
		ServiceNotSupported:  c.ServiceNotSupported,
		TrustAnchorMissing:   c.TrustAnchorMissing,
		UnknownVersion:       c.UnknownVersion,
		ServiceError:         c.ServiceError,
		Yes:                  c.Yes,
		No:                   c.No,
		P12Filter:            c.P12Filter,
		AllFilter:            c.AllFilter,
		P12Title:             c.P12Title,
		SaveSupplicantConf:   c.SaveSupplicantConf,
		SaveSupplicantOK:     c.SaveSupplicantOK,
		WrongUsernameFormat:  c.WrongUsernameFormat,
		WrongRealm:           c.WrongRealm,
		WrongRealmSuffix:     c.WrongRealmSuffix,
		UserCertMissing:      c.UserCertMissing,
		IdentityUnavailable:  c.IdentityUnavailable,
		FileNotFound:         c.FileNotFound,
	}
}

package cdef

// Messages are the user-facing strings. Institution bundles may replace any
// of them with a translation; empty fields fall back to the defaults.
type Messages struct {
	Quit                 string
	UsernamePrompt       string
	EnterPassword        string
	EnterImportPassword  string
	IncorrectPassword    string
	RepeatPassword       string
	PasswordsDiffer      string
	InstallationFinished string
	StateDirExists       string
	Continue             string
	ServiceNotSupported  string
	TrustAnchorMissing   string
	UnknownVersion       string
	ServiceError         string
	Yes                  string
	No                   string
	P12Filter            string
	AllFilter            string
	P12Title             string
	SaveSupplicantConf   string
	SaveSupplicantOK     string
	WrongUsernameFormat  string
	WrongRealm           string
	WrongRealmSuffix     string
	UserCertMissing      string
	IdentityUnavailable  string
	FileNotFound         string
}

// DefaultMessages returns the English message table.
func DefaultMessages() Messages {
	return Messages{
		Quit:                 "Really quit?",
		UsernamePrompt:       "enter your userid",
		EnterPassword:        "enter password",
		EnterImportPassword:  "enter your import password",
		IncorrectPassword:    "incorrect password",
		RepeatPassword:       "repeat your password",
		PasswordsDiffer:      "passwords do not match",
		InstallationFinished: "Installation successful",
		StateDirExists:       "Directory %s exists; some of its files may be overwritten.",
		Continue:             "Continue?",
		ServiceNotSupported:  "This NetworkManager version is not supported",
		TrustAnchorMissing:   "Certificate file not found, looks like a CAT error",
		UnknownVersion:       "Unknown version",
		ServiceError:         "DBus connection problem, a sudo might help",
		Yes:                  "Y",
		No:                   "N",
		P12Filter:            "personal certificate file (p12 or pfx)",
		AllFilter:            "All files",
		P12Title:             "personal certificate file (p12 or pfx)",
		SaveSupplicantConf: "NetworkManager configuration failed, but we may generate a wpa_supplicant " +
			"configuration file if you wish. Be warned that your connection password will be saved " +
			"in this file as clear text.",
		SaveSupplicantOK:    "Write the file",
		WrongUsernameFormat: "Error: Your username must be of the form 'xxx@institutionID' e.g. 'john@example.net'!",
		WrongRealm:          "Error: your username must be in the form of 'xxx@%s'. Please enter the username in the correct format.",
		WrongRealmSuffix: "Error: your username must be in the form of 'xxx@institutionID' and end with '%s'. " +
			"Please enter the username in the correct format.",
		UserCertMissing:     "personal certificate file not found",
		IdentityUnavailable: "Unable to extract username from the certificate",
		FileNotFound:        "file not found",
	}
}

// Merge returns m with empty fields taken from def.
func (m Messages) Merge(def Messages) Messages {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Quit, def.Quit)
	fill(&m.UsernamePrompt, def.UsernamePrompt)
	fill(&m.EnterPassword, def.EnterPassword)
	fill(&m.EnterImportPassword, def.EnterImportPassword)
	fill(&m.IncorrectPassword, def.IncorrectPassword)
	fill(&m.RepeatPassword, def.RepeatPassword)
	fill(&m.PasswordsDiffer, def.PasswordsDiffer)
	fill(&m.InstallationFinished, def.InstallationFinished)
	fill(&m.StateDirExists, def.StateDirExists)
	fill(&m.Continue, def.Continue)
	fill(&m.ServiceNotSupported, def.ServiceNotSupported)
	fill(&m.TrustAnchorMissing, def.TrustAnchorMissing)
	fill(&m.UnknownVersion, def.UnknownVersion)
	fill(&m.ServiceError, def.ServiceError)
	fill(&m.Yes, def.Yes)
	fill(&m.No, def.No)
	fill(&m.P12Filter, def.P12Filter)
	fill(&m.AllFilter, def.AllFilter)
	fill(&m.P12Title, def.P12Title)
	fill(&m.SaveSupplicantConf, def.SaveSupplicantConf)
	fill(&m.SaveSupplicantOK, def.SaveSupplicantOK)
	fill(&m.WrongUsernameFormat, def.WrongUsernameFormat)
	fill(&m.WrongRealm, def.WrongRealm)
	fill(&m.WrongRealmSuffix, def.WrongRealmSuffix)
	fill(&m.UserCertMissing, def.UserCertMissing)
	fill(&m.IdentityUnavailable, def.IdentityUnavailable)
	fill(&m.FileNotFound, def.FileNotFound)
	return m
}

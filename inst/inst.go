// Package inst loads the institution bundle the installer is built for.
//
// The default bundle is embedded at build time. Other bundles can be given
// as YAML files or as compact CBOR files with integer keys.
package inst

import (
	_ "embed"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/kardianos/catinstall/cdef"
	"github.com/kardianos/catinstall/realm"
)

//go:embed institution.yaml
var defaultBundle []byte

// ErrInvalidBundle is returned for a bundle that cannot configure an installer.
var ErrInvalidBundle = errors.New("inst: invalid institution bundle")

// Format is the encoding of a bundle file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("inst: unknown bundle extension %q", filepath.Ext(path))
	}
}

// Default returns the embedded institution.
func Default() (*cdef.Institution, error) {
	return Parse(defaultBundle, FormatYAML)
}

// Load reads a bundle file.
func Load(path string) (*cdef.Institution, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read institution bundle: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a bundle.
func Parse(data []byte, format Format) (*cdef.Institution, error) {
	var b bundle
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatCBOR:
		if err := cbor.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to parse CBOR: %w", err)
		}
	default:
		return nil, fmt.Errorf("inst: unknown format %q", format)
	}
	in, err := b.institution()
	if err != nil {
		return nil, err
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	return in, nil
}

// Encode writes the institution in the given format.
func Encode(in *cdef.Institution, format Format) ([]byte, error) {
	b := fromInstitution(in)
	switch format {
	case FormatYAML:
		return yaml.Marshal(b)
	case FormatCBOR:
		return cbor.Marshal(b)
	default:
		return nil, fmt.Errorf("inst: unknown format %q", format)
	}
}

// Validate rejects institutions the installer cannot provision.
func Validate(in *cdef.Institution) error {
	var problems []string
	if len(in.SSIDs) == 0 {
		problems = append(problems, "no SSIDs")
	}
	for _, s := range slices.Concat(in.SSIDs, in.DeleteSSIDs) {
		if s == "" || len(s) > 32 {
			problems = append(problems, fmt.Sprintf("SSID %q must be 1 to 32 bytes", s))
		}
	}
	if _, err := cdef.ParseEAPMethod(string(in.EAPOuter)); err != nil {
		problems = append(problems, err.Error())
	}
	if in.EAPOuter.UsesPassword() && in.EAPInner == "" {
		problems = append(problems, "inner method required for "+string(in.EAPOuter))
	}
	if block, _ := pem.Decode([]byte(in.CA)); block == nil || block.Type != "CERTIFICATE" {
		problems = append(problems, "CA is not a PEM certificate")
	}
	if in.RealmMode != realm.ModeNone && in.Realm == "" {
		problems = append(problems, fmt.Sprintf("realm mode %s needs a realm", in.RealmMode))
	}
	if in.EmbeddedBundle() && len(in.SilverBullet) == 0 {
		problems = append(problems, "embedded client bundle missing")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(problems, "; "))
	}
	return nil
}

// bundle is the file form of an institution.
type bundle struct {
	Name    string `yaml:"name" cbor:"1,keyasint,omitempty"`
	Profile string `yaml:"profile" cbor:"2,keyasint,omitempty"`
	URL     string `yaml:"url" cbor:"3,keyasint,omitempty"`
	Email   string `yaml:"email" cbor:"4,keyasint,omitempty"`
	Title   string `yaml:"title" cbor:"5,keyasint,omitempty"`

	SSIDs       []string `yaml:"ssids" cbor:"6,keyasint"`
	DeleteSSIDs []string `yaml:"delete_ssids,omitempty" cbor:"7,keyasint,omitempty"`

	EAPOuter string `yaml:"eap_outer" cbor:"8,keyasint"`
	EAPInner string `yaml:"eap_inner,omitempty" cbor:"9,keyasint,omitempty"`

	CA string `yaml:"ca" cbor:"10,keyasint"`

	Realm             string `yaml:"realm,omitempty" cbor:"11,keyasint,omitempty"`
	RealmMode         string `yaml:"realm_mode,omitempty" cbor:"12,keyasint,omitempty"`
	AnonymousIdentity string `yaml:"anonymous_identity,omitempty" cbor:"13,keyasint,omitempty"`

	Servers       []string `yaml:"servers,omitempty" cbor:"14,keyasint,omitempty"`
	ServerMatch   string   `yaml:"server_match,omitempty" cbor:"15,keyasint,omitempty"`
	UseOtherTLSID bool     `yaml:"use_other_tls_id,omitempty" cbor:"16,keyasint,omitempty"`

	InitInfo         string `yaml:"init_info,omitempty" cbor:"17,keyasint,omitempty"`
	InitConfirmation string `yaml:"init_confirmation,omitempty" cbor:"18,keyasint,omitempty"`
	TermsOfUse       string `yaml:"terms_of_use,omitempty" cbor:"19,keyasint,omitempty"`

	// SilverBullet is the base64 encoded client bundle.
	SilverBullet string `yaml:"silverbullet,omitempty" cbor:"20,keyasint,omitempty"`

	Messages messages `yaml:"messages,omitempty" cbor:"21,keyasint,omitempty"`
}

func (b *bundle) institution() (*cdef.Institution, error) {
	outer, err := cdef.ParseEAPMethod(b.EAPOuter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	mode, err := realm.ParseMode(b.RealmMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	var sb []byte
	if b.SilverBullet != "" {
		sb, err = base64.StdEncoding.DecodeString(strings.Join(strings.Fields(b.SilverBullet), ""))
		if err != nil {
			return nil, fmt.Errorf("%w: silverbullet: %v", ErrInvalidBundle, err)
		}
	}
	title := b.Title
	if title == "" {
		title = "eduroam CAT"
	}
	return &cdef.Institution{
		Name:              b.Name,
		Profile:           b.Profile,
		URL:               b.URL,
		Email:             b.Email,
		Title:             title,
		SSIDs:             nilIfEmpty(b.SSIDs),
		DeleteSSIDs:       nilIfEmpty(b.DeleteSSIDs),
		EAPOuter:          outer,
		EAPInner:          strings.ToUpper(b.EAPInner),
		CA:                b.CA,
		Realm:             b.Realm,
		RealmMode:         mode,
		AnonymousIdentity: b.AnonymousIdentity,
		Servers:           nilIfEmpty(b.Servers),
		ServerMatch:       b.ServerMatch,
		UseOtherTLSID:     b.UseOtherTLSID,
		InitInfo:          b.InitInfo,
		InitConfirmation:  b.InitConfirmation,
		TermsOfUse:        b.TermsOfUse,
		SilverBullet:      sb,
		Messages:          b.Messages.messages().Merge(cdef.DefaultMessages()),
	}, nil
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func fromInstitution(in *cdef.Institution) bundle {
	b := bundle{
		Name:              in.Name,
		Profile:           in.Profile,
		URL:               in.URL,
		Email:             in.Email,
		Title:             in.Title,
		SSIDs:             in.SSIDs,
		DeleteSSIDs:       in.DeleteSSIDs,
		EAPOuter:          in.EAPOuter.String(),
		EAPInner:          in.EAPInner,
		CA:                in.CA,
		Realm:             in.Realm,
		RealmMode:         in.RealmMode.String(),
		AnonymousIdentity: in.AnonymousIdentity,
		Servers:           in.Servers,
		ServerMatch:       in.ServerMatch,
		UseOtherTLSID:     in.UseOtherTLSID,
		InitInfo:          in.InitInfo,
		InitConfirmation:  in.InitConfirmation,
		TermsOfUse:        in.TermsOfUse,
		Messages:          fromMessages(in.Messages),
	}
	if len(in.SilverBullet) > 0 {
		b.SilverBullet = base64.StdEncoding.EncodeToString(in.SilverBullet)
	}
	return b
}

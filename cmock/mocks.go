// Package cmock provides test doubles for the installer interfaces.
package cmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kardianos/catinstall/ask"
	"github.com/kardianos/catinstall/p12id"
)

// Port is a testify mock of ask.Port.
type Port struct{ mock.Mock }

var _ ask.Port = (*Port)(nil)

func (p *Port) AskYesNo(ctx context.Context, question, label string, def ask.Answer) (bool, error) {
	ret := p.Called(question, label, def)
	return ret.Bool(0), ret.Error(1)
}

func (p *Port) PromptText(ctx context.Context, label string, show bool, initial string) (string, error) {
	ret := p.Called(label, show, initial)
	return ret.String(0), ret.Error(1)
}

func (p *Port) SelectFile(ctx context.Context, title string) (string, error) {
	ret := p.Called(title)
	return ret.String(0), ret.Error(1)
}

func (p *Port) Inform(ctx context.Context, text string) { p.Called(text) }
func (p *Port) Warn(ctx context.Context, text string)   { p.Called(text) }

// Extractor is a testify mock of p12id.Extractor.
type Extractor struct{ mock.Mock }

var _ p12id.Extractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, bundle []byte, passphrase string, altIdentity bool) (p12id.Identity, error) {
	ret := e.Called(bundle, passphrase, altIdentity)
	return ret.Get(0).(p12id.Identity), ret.Error(1)
}

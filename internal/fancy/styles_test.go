package fancy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/Sey56/Paracore-sub001/internal/fancy"
)

type StylesTestSuite struct {
	suite.Suite
}

func (s *StylesTestSuite) TestStylesRender() {
	sample := "Test Text"
	for _, rendered := range []string{
		fancy.RootStyle.Render(sample),
		fancy.HeaderStyle.Render(sample),
		fancy.InfoStyle.Render(sample),
		fancy.BranchStyle.Render(sample),
		fancy.ComponentStyle.Render(sample),
		fancy.ParameterStyle.Render(sample),
		fancy.TypeStyle.Render(sample),
		fancy.SectionStyle.Render(sample),
		fancy.ValidStyle.Render(sample),
		fancy.ErrorStyle.Render(sample),
	} {
		s.Contains(rendered, sample)
	}
}

func (s *StylesTestSuite) TestHelperFunctions() {
	helpers := map[string]func(string) string{
		"ParameterText": fancy.ParameterText,
		"TypeText":      fancy.TypeText,
		"SectionText":   fancy.SectionText,
		"ValidText":     fancy.ValidText,
		"ErrorText":     fancy.ErrorText,
		"PathText":      fancy.PathText,
		"SummaryText":   fancy.SummaryText,
		"CountText":     fancy.CountText,
		"StateText":     fancy.StateText,
	}
	for name, fn := range helpers {
		s.Run(name, func() {
			s.Contains(fn("value"), "value")
			s.NotPanics(func() { fn("") })
		})
	}
}

func TestStylesSuite(t *testing.T) {
	suite.Run(t, new(StylesTestSuite))
}

func TestStyleConsistency(t *testing.T) {
	assert.Equal(t, fancy.ParameterText("Count"), fancy.ParameterText("Count"))
}

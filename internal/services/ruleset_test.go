package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/internal/services"
	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

func TestClassify_Defaults(t *testing.T) {
	rs := services.DefaultRuleset()

	cases := map[string]model.ServiceCategory{
		"sshd":                model.CategorySafe,
		"ssh":                 model.CategorySafe,
		"cron":                model.CategorySafe,
		"systemd-journald":    model.CategorySafe,
		"getty@tty1":          model.CategorySafe,
		"serial-getty@ttyS0":  model.CategorySafe,
		"NetworkManager":      model.CategorySafe,
		"debug-shell":         model.CategoryUnsafe,
		"telnetd":             model.CategoryUnsafe,
		"inetd-telnet":        model.CategoryUnsafe,
		"rshd":                model.CategoryUnsafe,
		"vsftpd":              model.CategoryUnsafe,
		"tftpd-hpa":           model.CategoryUnsafe,
		"my-custom-agent":     model.CategoryReview,
		"docker":              model.CategoryReview,
		"nginx":               model.CategoryReview,
	}
	for name, want := range cases {
		assert.Equal(t, want, rs.Classify(name), "service %s", name)
	}
}

func TestClassify_SafeWinsOverUnsafe(t *testing.T) {
	rs, err := services.Compile([]string{`agent-.*`}, []string{`agent-x`})
	require.NoError(t, err)

	assert.Equal(t, model.CategorySafe, rs.Classify("agent-x"))
}

func TestClassify_Anchored(t *testing.T) {
	rs, err := services.Compile([]string{`ssh`}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.CategorySafe, rs.Classify("ssh"))
	assert.Equal(t, model.CategoryReview, rs.Classify("ssh-honeypot"))
	assert.Equal(t, model.CategoryReview, rs.Classify("opensshd"))
}

func TestClassify_CaseSensitive(t *testing.T) {
	rs := services.DefaultRuleset()

	assert.Equal(t, model.CategorySafe, rs.Classify("NetworkManager"))
	assert.Equal(t, model.CategoryReview, rs.Classify("networkmanager"))
}

func TestClassify_Total(t *testing.T) {
	rs := services.DefaultRuleset()

	for _, name := range []string{"", "x", "sshd", "telnetd", "weird name with spaces", "UPPER", "123"} {
		cat := rs.Classify(name)
		assert.Contains(t, []model.ServiceCategory{
			model.CategorySafe, model.CategoryUnsafe, model.CategoryReview,
		}, cat, "service %q", name)
	}
}

func TestClassifyAll_OrderAndDedupe(t *testing.T) {
	rs := services.DefaultRuleset()

	records := rs.ClassifyAll([]string{"sshd", "telnetd", "sshd", "nginx", ""})
	require.Len(t, records, 3)
	assert.Equal(t, "sshd", records[0].Name)
	assert.Equal(t, "telnetd", records[1].Name)
	assert.Equal(t, "nginx", records[2].Name)
}

func TestCompile_BadPattern(t *testing.T) {
	_, err := services.Compile([]string{`valid`, `broken(`}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrBadPattern)
	assert.Contains(t, err.Error(), "broken(")

	_, err = services.Compile(nil, []string{`[z-a]`})
	assert.ErrorIs(t, err, errclass.ErrBadPattern)
}

func TestFromConfig_EmptyTablesKeepDefaults(t *testing.T) {
	rs, err := services.FromConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CategorySafe, rs.Classify("sshd"))
	assert.Equal(t, model.CategoryUnsafe, rs.Classify("debug-shell"))
}

func TestFromConfig_ReplacesTables(t *testing.T) {
	rs, err := services.FromConfig([]string{`only-this`}, []string{`bad-thing`})
	require.NoError(t, err)
	assert.Equal(t, model.CategorySafe, rs.Classify("only-this"))
	assert.Equal(t, model.CategoryUnsafe, rs.Classify("bad-thing"))
	// Built-ins are gone once the config supplies a table.
	assert.Equal(t, model.CategoryReview, rs.Classify("sshd"))
	assert.Equal(t, model.CategoryReview, rs.Classify("debug-shell"))
}

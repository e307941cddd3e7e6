package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_DefaultRussian(t *testing.T) {
	tr, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "ru", tr.DefaultLang())
	assert.Equal(t, "неверный пароль", tr.T("error.wrong_password", nil))
	assert.Equal(t, "вы не авторизованы", tr.T("error.unauthorized", nil))
}

func TestTranslate_English(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Equal(t, "wrong password", tr.T("error.wrong_password", nil))
}

func TestTranslate_TemplateData(t *testing.T) {
	tr, err := New("ru")
	require.NoError(t, err)
	got := tr.T("error.field_missing", map[string]any{"Field": "nickname"})
	assert.Equal(t, "пропущено поле 'nickname'", got)
}

func TestTranslate_UnknownIDFallsBack(t *testing.T) {
	tr, err := New("ru")
	require.NoError(t, err)
	assert.Equal(t, "error.does_not_exist", tr.T("error.does_not_exist", nil))
}

func TestLoadTranslations_Override(t *testing.T) {
	dir := t.TempDir()
	override := "[error.wrong_password]\nother = \"пароль не подходит\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ru.toml"), []byte(override), 0o644))

	tr, err := New("ru")
	require.NoError(t, err)
	require.NoError(t, tr.LoadTranslations(dir))
	assert.Equal(t, "пароль не подходит", tr.T("error.wrong_password", nil))
}

package slugs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Zobu balināšana":         "zobu-balinasana",
		"  Ķirurģija & Implanti ": "kirurgija-and-implanti",
		"Mutes_higiēna":           "mutes-higiena",
		"Sejas kopšana -- 2025":   "sejas-kopsana-2025",
		"ŽĒLSIRDĪBA":              "zelsirdiba",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	titles := []string{
		"Zobu balināšana",
		"Lāzera epilācija (sejai)",
		"A__b--c",
		"100% Ūdens",
		"",
		"---",
	}
	for _, title := range titles {
		once := Slugify(title)
		assert.Equal(t, once, Slugify(once), title)
		assert.Equal(t, once, Slugify(title), title)
	}
}

func TestField_DerivesUntilEdited(t *testing.T) {
	f := NewField("")
	f.SetTitle("Zobu balināšana")
	assert.Equal(t, "zobu-balinasana", f.Value())
	assert.False(t, f.Dirty())

	f.Edit("balinasana")
	f.SetTitle("Zobu balināšana ar lāzeru")
	assert.Equal(t, "balinasana", f.Value())
	assert.True(t, f.Dirty())

	f.Reset("Zobu balināšana ar lāzeru")
	assert.Equal(t, "zobu-balinasana-ar-lazeru", f.Value())
	assert.False(t, f.Dirty())
}

func TestField_ClearingEditResumesDerivation(t *testing.T) {
	f := NewField("custom")
	f.SetTitle("Jauns nosaukums")
	assert.Equal(t, "custom", f.Value())

	f.Edit("")
	f.SetTitle("Jauns nosaukums")
	assert.Equal(t, "jauns-nosaukums", f.Value())
}

func TestField_ManualEditSurvivesRepeatedTitleChanges(t *testing.T) {
	f := NewField("")
	f.Edit("mans-slugs")
	for _, title := range []string{"Pirmais", "Otrais", "Trešais"} {
		f.SetTitle(title)
		assert.Equal(t, "mans-slugs", f.Value(), title)
	}

	f.Reset("Trešais")
	f.SetTitle("Ceturtais")
	assert.Equal(t, "ceturtais", f.Value())
}

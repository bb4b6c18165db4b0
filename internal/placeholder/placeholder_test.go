package placeholder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valpere/vidlingo/internal/placeholder"
)

func TestProtect_PlainQuery(t *testing.T) {
	got, tokens := placeholder.Protect("gato negro")
	assert.Equal(t, "gato negro", got)
	assert.Empty(t, tokens)
}

func TestProtect_Tokens(t *testing.T) {
	got, tokens := placeholder.Protect("recetas #comida de @abuela_maria")

	assert.Equal(t, "recetas [PH0] de [PH1]", got)
	assert.Equal(t, []string{"#comida", "@abuela_maria"}, tokens)
}

func TestProtect_URLKeepsFragment(t *testing.T) {
	got, tokens := placeholder.Protect("resumen https://youtu.be/abc#t=30 #noticias")

	assert.Equal(t, "resumen [PH0] [PH1]", got)
	assert.Equal(t, []string{"https://youtu.be/abc#t=30", "#noticias"}, tokens)
}

func TestProtect_UnicodeHashtag(t *testing.T) {
	got, tokens := placeholder.Protect("відео #київ")

	assert.Equal(t, "відео [PH0]", got)
	assert.Equal(t, []string{"#київ"}, tokens)
}

func TestProtect_LiteralMarkerInInput(t *testing.T) {
	got, tokens := placeholder.Protect("chat [PH0] #chats")

	assert.Equal(t, "chat [PH0] #chats", got)
	assert.Empty(t, tokens)
}

func TestRestore(t *testing.T) {
	tokens := []string{"#comida", "@abuela_maria"}

	assert.Equal(t, "@abuela_maria recipes #comida", placeholder.Restore("[PH1] recipes [PH0]", tokens))
	assert.Equal(t, "recipes [PH7]", placeholder.Restore("recipes [PH7]", tokens))
	assert.Equal(t, "no markers [PH0]", placeholder.Restore("no markers [PH0]", nil))
}

func TestMissing(t *testing.T) {
	tokens := []string{"#comida", "@abuela_maria"}

	assert.Empty(t, placeholder.Missing("[PH0] [PH1]", tokens))
	assert.Equal(t, []string{"@abuela_maria"}, placeholder.Missing("recipes [PH0]", tokens))
}

func TestOnlyMarkers(t *testing.T) {
	assert.True(t, placeholder.OnlyMarkers(" [PH0]  [PH1] "))
	assert.False(t, placeholder.OnlyMarkers("recetas [PH0]"))
	assert.True(t, placeholder.OnlyMarkers(""))
}

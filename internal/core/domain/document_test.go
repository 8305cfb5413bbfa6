package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentID_StableAcrossReads(t *testing.T) {
	assert.Equal(t, DocumentID("notes/ideas.md"), DocumentID("notes/ideas.md"))
	assert.NotEqual(t, DocumentID("notes/ideas.md"), DocumentID("notes/other.md"))
}

func TestDocumentID_NormalisesPathForm(t *testing.T) {
	canonical := DocumentID("notes/ideas.md")

	assert.Equal(t, canonical, DocumentID("./notes/ideas.md"))
	assert.Equal(t, canonical, DocumentID("notes//ideas.md"))
	assert.Equal(t, canonical, DocumentID(`notes\ideas.md`))
}

func TestFingerprint_ChangesOnlyWithContent(t *testing.T) {
	base := Fingerprint("line one\nline two")

	assert.Equal(t, base, Fingerprint("line one\r\nline two"), "line endings should not change the fingerprint")
	assert.Equal(t, base, Fingerprint("\n\nline one\nline two\n\n"), "surrounding whitespace should not change the fingerprint")
	assert.NotEqual(t, base, Fingerprint("line one\nline two edited"))
}

func TestNormaliseTags(t *testing.T) {
	tags := NormaliseTags([]string{" Robotics ", "lab", "ROBOTICS", "", "lab"})
	assert.Equal(t, []string{"lab", "robotics"}, tags)

	assert.Empty(t, NormaliseTags(nil))
	assert.Empty(t, NormaliseTags([]string{"  ", ""}))
}

func TestDocumentRecord_HasTag(t *testing.T) {
	doc := DocumentRecord{Tags: []string{"lab", "robotics"}}

	assert.True(t, doc.HasTag("robotics"))
	assert.True(t, doc.HasTag(" ROBOTICS "))
	assert.False(t, doc.HasTag("cooking"))
}

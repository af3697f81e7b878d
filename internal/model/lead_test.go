package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status LeadStatus
		want   string
	}{
		{StatusNew, "new"},
		{StatusContacted, "contacted"},
		{StatusResponded, "responded"},
		{StatusQualified, "qualified"},
		{StatusNurturing, "nurturing"},
		{StatusConverted, "converted"},
		{StatusLost, "lost"},
		{StatusArchived, "archived"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
			assert.True(t, ValidStatus(tt.status))
		})
	}
}

func TestValidStatus_Unknown(t *testing.T) {
	t.Parallel()
	assert.False(t, ValidStatus(LeadStatus("bogus")))
	assert.False(t, ValidStatus(LeadStatus("")))
}

func TestRawContactDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  RawContact
		want string
	}{
		{"name wins", RawContact{Name: "Jo Smith", Username: "josmith", Email: "jo@x.com"}, "Jo Smith"},
		{"username fallback", RawContact{Username: "josmith", Email: "jo@x.com"}, "josmith"},
		{"email fallback", RawContact{Email: "jo@x.com"}, "jo@x.com"},
		{"unknown", RawContact{Source: "csv"}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.raw.DisplayName())
		})
	}
}

func TestRawContactHasIdentity(t *testing.T) {
	t.Parallel()

	assert.False(t, RawContact{Source: "csv", Name: "Anon"}.HasIdentity())
	assert.True(t, RawContact{SourceID: "123"}.HasIdentity())
	assert.True(t, RawContact{Email: "a@b.com"}.HasIdentity())
	assert.True(t, RawContact{Phone: "6145550101"}.HasIdentity())
	assert.True(t, RawContact{Username: "handle"}.HasIdentity())
}

func TestLeadTextSurface(t *testing.T) {
	t.Parallel()

	l := Lead{
		Notes:    "called last week",
		Bio:      "first time homebuyer",
		Messages: []string{"I'm preapproved", ""},
		Comments: []string{"looking in Powell"},
	}
	assert.Equal(t,
		"called last week first time homebuyer I'm preapproved looking in Powell",
		l.TextSurface(),
	)

	assert.Equal(t, "", Lead{}.TextSurface())
}

func TestLeadTags(t *testing.T) {
	t.Parallel()

	var l Lead
	l.AddTags("buyer", "  ", "Buyer", "powell")
	assert.Equal(t, []string{"buyer", "powell"}, l.Tags)
	assert.True(t, l.HasTag("BUYER"))
	assert.False(t, l.HasTag("seller"))
}

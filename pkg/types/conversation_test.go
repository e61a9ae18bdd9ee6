package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWirePreservesSystemRole(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	}

	wire, err := conv.ToWire(false)
	require.NoError(t, err)
	require.Len(t, wire, 2)
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "be brief", wire[0].Content)
}

func TestToWireMergesSystemIntoUser(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "bye"},
	}

	wire, err := conv.ToWire(true)
	require.NoError(t, err)
	require.Len(t, wire, 3)
	assert.Equal(t, "user", wire[0].Role)
	assert.Equal(t, "be brief\n\nhi", wire[0].Content)
	assert.Equal(t, "hello", wire[1].Content)
	assert.Equal(t, "bye", wire[2].Content)
}

func TestMergeRejectsDanglingSystem(t *testing.T) {
	conv := Conversation{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "too late"},
	}

	_, err := conv.MergeSystemIntoUser()
	assert.ErrorIs(t, err, ErrDanglingSystemMessage)
}

func TestMergeRejectsSystemBeforeAssistant(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleAssistant, Content: "hello"},
	}

	_, err := conv.MergeSystemIntoUser()
	assert.ErrorIs(t, err, ErrDanglingSystemMessage)
}

func TestMergeRejectsConsecutiveSystemMessages(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "one"},
		{Role: RoleSystem, Content: "two"},
		{Role: RoleUser, Content: "hi"},
	}

	_, err := conv.MergeSystemIntoUser()
	assert.ErrorIs(t, err, ErrConsecutiveSystemMessages)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	conv := Conversation{{Role: "tool", Content: "x"}}
	assert.ErrorIs(t, conv.Validate(), ErrInvalidRole)
}

func TestAppendDoesNotAliasOriginal(t *testing.T) {
	base := Conversation{{Role: RoleUser, Content: "hi"}}
	extended := base.Append(RoleAssistant, "hello")

	require.Len(t, base, 1)
	require.Len(t, extended, 2)
	extended[0].Content = "changed"
	assert.Equal(t, "hi", base[0].Content)
}

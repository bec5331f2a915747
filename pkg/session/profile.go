package session

import "github.com/tiancaiamao/nanocode/pkg/llm"

// Profile is the set of server-side tools enabled for a session. It is
// fixed at session creation; changing capabilities means creating a new
// session.
type Profile []llm.ServerTool

// DefaultProfile is the startup capability set: web search and X search.
func DefaultProfile() Profile {
	return Profile{
		{Type: "web_search"},
		{Type: "x_search"},
	}
}

// ExpandedProfile is the capability set enabled by a conversation
// reset: search with image understanding plus server-side code
// execution.
func ExpandedProfile() Profile {
	return Profile{
		{Type: "web_search"},
		{Type: "x_search", Options: map[string]any{"enable_image_understanding": true}},
		{Type: "code_execution"},
	}
}

// ServerTools returns the wire advertisements for the profile.
func (p Profile) ServerTools() []llm.ServerTool {
	return []llm.ServerTool(p)
}

package connector

import (
	"strings"
	"time"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// maxThreadMessages caps how many of a contact's DMs are kept per thread.
// The newest text is what matters for intent; full threads can run to
// thousands of lines.
const maxThreadMessages = 50

// InstagramConnector imports leads from an Instagram data export, either the
// downloaded zip or its extracted folder. It pulls followers, DM partners,
// and post commenters.
type InstagramConnector struct{}

func (c *InstagramConnector) Source() string { return "instagram" }

func (c *InstagramConnector) Import(path string) (*ImportResult, error) {
	files, cleanup, err := listExport(path)
	if err != nil {
		return nil, err
	}
	defer cleanup() //nolint:errcheck

	result := &ImportResult{Source: c.Source()}

	if data, _ := findJSON(files, "followers_and_following/followers_1.json", "followers.json"); data != nil {
		c.parseFollowers(data, result)
	}
	for _, thread := range messageThreads(files, false) {
		c.parseThread(thread, result)
	}
	if data, _ := findJSON(files, "comments/post_comments_1.json", "comments.json"); data != nil {
		c.parseComments(data, result)
	}

	if len(result.Contacts) == 0 {
		result.warnf("no leads found in Instagram export")
	}
	return result, nil
}

// parseFollowers handles both export generations: the current
// string_list_data wrapper and the flat username objects of older exports.
func (c *InstagramConnector) parseFollowers(data any, result *ImportResult) {
	for _, item := range asList(data, "relationships_followers", "followers") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		username := ""
		if sld, ok := entry["string_list_data"].([]any); ok && len(sld) > 0 {
			if first, ok := sld[0].(map[string]any); ok {
				username = stringField(first, "value")
			}
		} else if u := stringField(entry, "username"); u != "" {
			username = u
		} else if v := stringField(entry, "value"); v != "" {
			username = v
		}
		if username == "" {
			continue
		}

		result.Contacts = append(result.Contacts, model.RawContact{
			Source:     c.Source(),
			Username:   username,
			ProfileURL: "https://instagram.com/" + username,
			ImportedAt: time.Now().UTC(),
			RawData:    entry,
		})
	}
}

// parseThread turns each DM participant into a contact carrying the messages
// they sent.
func (c *InstagramConnector) parseThread(thread map[string]any, result *ImportResult) {
	participants, _ := thread["participants"].([]any)
	messages, _ := thread["messages"].([]any)

	for _, p := range participants {
		participant, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(participant, "name")
		if name == "" {
			continue
		}

		var theirMessages []string
		for _, m := range messages {
			msg, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if stringField(msg, "sender_name") != name {
				continue
			}
			content := fixMojibake(stringField(msg, "content"))
			if content == "" {
				continue
			}
			theirMessages = append(theirMessages, content)
			if len(theirMessages) == maxThreadMessages {
				break
			}
		}

		handle := strings.ToLower(strings.ReplaceAll(name, " ", ""))
		result.Contacts = append(result.Contacts, model.RawContact{
			Source:     c.Source(),
			Name:       fixMojibake(name),
			Username:   handle,
			Messages:   theirMessages,
			ProfileURL: "https://instagram.com/" + handle,
			ImportedAt: time.Now().UTC(),
			RawData:    map[string]any{"participant": participant, "message_count": len(theirMessages)},
		})
	}
}

func (c *InstagramConnector) parseComments(data any, result *ImportResult) {
	seen := make(map[string]bool)

	for _, item := range asList(data, "comments_media_comments") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		var username, text string
		if sld, ok := entry["string_list_data"].([]any); ok && len(sld) > 0 {
			if first, ok := sld[0].(map[string]any); ok {
				text = stringField(first, "value")
				username, _, _ = strings.Cut(text, " ")
			}
		} else if author := stringField(entry, "author"); author != "" {
			username = author
			text = stringField(entry, "text")
		}
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true

		contact := model.RawContact{
			Source:     c.Source(),
			Username:   username,
			ProfileURL: "https://instagram.com/" + username,
			ImportedAt: time.Now().UTC(),
			RawData:    entry,
		}
		if text != "" {
			contact.Comments = []string{fixMojibake(text)}
		}
		result.Contacts = append(result.Contacts, contact)
	}
}

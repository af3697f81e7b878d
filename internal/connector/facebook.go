package connector

import (
	"time"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// FacebookConnector imports leads from a Facebook data export, either the
// downloaded zip or its extracted folder. It pulls friends, followers,
// Messenger partners, and post commenters.
type FacebookConnector struct{}

func (c *FacebookConnector) Source() string { return "facebook" }

func (c *FacebookConnector) Import(path string) (*ImportResult, error) {
	files, cleanup, err := listExport(path)
	if err != nil {
		return nil, err
	}
	defer cleanup() //nolint:errcheck

	result := &ImportResult{Source: c.Source()}

	if data, _ := findJSON(files, "friends/friends.json", "friends_and_followers/friends.json"); data != nil {
		c.parseFriends(data, result)
	}
	if data, _ := findJSON(files, "followers_and_following/followers.json", "followers.json"); data != nil {
		c.parseFollowers(data, result)
	}
	for _, thread := range messageThreads(files, true) {
		c.parseThread(thread, result)
	}
	if data, _ := findJSON(files, "comments_and_reactions/comments.json", "comments/comments.json"); data != nil {
		c.parseComments(data, result)
	}

	if len(result.Contacts) == 0 {
		result.warnf("no leads found in Facebook export")
	}
	return result, nil
}

func (c *FacebookConnector) parseFriends(data any, result *ImportResult) {
	for _, item := range asList(data, "friends_v2", "friends") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(entry, "name")
		if name == "" {
			if ci, ok := entry["contact_info"].(map[string]any); ok {
				name = stringField(ci, "name")
			}
		}
		if name == "" {
			continue
		}

		result.Contacts = append(result.Contacts, model.RawContact{
			Source:     c.Source(),
			Name:       fixMojibake(name),
			ProfileURL: stringField(entry, "profile_uri"),
			ImportedAt: time.Now().UTC(),
			RawData:    entry,
		})
	}
}

func (c *FacebookConnector) parseFollowers(data any, result *ImportResult) {
	for _, item := range asList(data, "followers_v2", "followers") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(entry, "name")
		if name == "" {
			continue
		}

		result.Contacts = append(result.Contacts, model.RawContact{
			Source:     c.Source(),
			Name:       fixMojibake(name),
			ImportedAt: time.Now().UTC(),
			RawData:    entry,
		})
	}
}

// parseThread turns each Messenger partner into a contact. Group chats are
// skipped; a thread with more than two participants is not a lead signal.
func (c *FacebookConnector) parseThread(thread map[string]any, result *ImportResult) {
	participants, _ := thread["participants"].([]any)
	messages, _ := thread["messages"].([]any)

	if stringField(thread, "thread_type") == "RegularGroup" || len(participants) > 2 {
		return
	}

	for _, p := range participants {
		participant, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name := fixMojibake(stringField(participant, "name"))
		if name == "" {
			continue
		}

		var theirMessages []string
		for _, m := range messages {
			msg, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if fixMojibake(stringField(msg, "sender_name")) != name {
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

		result.Contacts = append(result.Contacts, model.RawContact{
			Source:     c.Source(),
			Name:       name,
			Messages:   theirMessages,
			ImportedAt: time.Now().UTC(),
			RawData:    map[string]any{"participant": participant, "message_count": len(theirMessages)},
		})
	}
}

func (c *FacebookConnector) parseComments(data any, result *ImportResult) {
	seen := make(map[string]bool)

	for _, item := range asList(data, "comments_v2", "comments") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		author := fixMojibake(stringField(entry, "author"))
		if author == "" || seen[author] {
			continue
		}
		seen[author] = true

		var text string
		if dataList, ok := entry["data"].([]any); ok {
			for _, d := range dataList {
				wrapper, ok := d.(map[string]any)
				if !ok {
					continue
				}
				if inner, ok := wrapper["comment"].(map[string]any); ok {
					text = stringField(inner, "comment")
				}
			}
		}

		contact := model.RawContact{
			Source:     c.Source(),
			Name:       author,
			ImportedAt: time.Now().UTC(),
			RawData:    entry,
		}
		if text != "" {
			contact.Comments = []string{fixMojibake(text)}
		}
		result.Contacts = append(result.Contacts, contact)
	}
}

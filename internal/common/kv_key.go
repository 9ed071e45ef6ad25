package common

import (
	"encoding/base64"
	"fmt"
)

func KVKeyApp(instanceURL string) string {
	return fmt.Sprintf("app:%s", instanceURL)
}

func KVKeyAuthRequest(id string) string {
	return fmt.Sprintf("auth_request:%s", id)
}

func KVKeySession(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func KVKeySessionFeedID(feedID string) string {
	return fmt.Sprintf("session_feed_id:%s", feedID)
}

// KVKeySessionAccount encodes the instance URL so that its colons cannot be
// confused with the separator.
func KVKeySessionAccount(instanceURL, accountID string) string {
	return fmt.Sprintf("session_account:%s:%s",
		base64.StdEncoding.EncodeToString([]byte(instanceURL)), accountID)
}

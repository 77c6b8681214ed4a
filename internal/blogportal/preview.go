package blogportal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Preview tokens let an editor share an unpublished revision without
// granting the recipient an account. A token is "<id>.<mac>" where the mac
// is an HMAC-SHA256 over the decimal post id, so it cannot be forged or
// bent to another post.

func previewToken(secret string, postID int) string {
	id := strconv.Itoa(postID)
	return id + "." + previewMAC(secret, id)
}

// parsePreviewToken verifies a token and returns the post id it grants
// access to.
func parsePreviewToken(secret, token string) (int, bool) {
	id, mac, ok := strings.Cut(token, ".")
	if !ok {
		return 0, false
	}

	postID, err := strconv.Atoi(id)
	if err != nil || postID < 1 {
		return 0, false
	}

	if !hmac.Equal([]byte(mac), []byte(previewMAC(secret, id))) {
		return 0, false
	}

	return postID, true
}

func previewMAC(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprint(mac, id)
	return hex.EncodeToString(mac.Sum(nil))
}

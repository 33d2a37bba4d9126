package utils

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GenerateMessageID creates an RFC 5322 style message id for outbound mail.
func GenerateMessageID(domain, metadata string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		panic(err)
	}

	timestamp := time.Now().UnixMicro()

	var hashComponent string
	if metadata != "" {
		hash := sha256.Sum256([]byte(metadata))
		hashComponent = fmt.Sprintf(".%x", hash[:4])
	}

	localPart := fmt.Sprintf("%d.%s%s", timestamp, id, hashComponent)
	return fmt.Sprintf("<%s@%s>", localPart, domain)
}

// SynthesizeMessageID builds a deterministic-but-unique identifier for a
// fetched message that carries no Message-ID header. The folder name and
// server UID keep it traceable, the timestamp keeps it unique. The result is
// stored bracket-free, the same normalized shape server-provided IDs get.
func SynthesizeMessageID(folderName string, uid uint32) string {
	safeFolder := strings.ReplaceAll(folderName, " ", "-")
	return fmt.Sprintf("%s_%d_%s@local", safeFolder, uid, time.Now().UTC().Format("20060102150405.000000"))
}

// NormalizeMessageID strips angle brackets and surrounding whitespace.
func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}

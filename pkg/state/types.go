package state

import "path/filepath"

// Paths is the on-disk layout under one storage root.
type Paths struct {
	Root        string
	Chats       string
	Connections string // connections.json

	// runtime state, never read by the store itself
	State     string
	Audit     string
	Retention string
	Crash     string
	Archive   string
}

func PathsFor(root string) Paths {
	statePath := filepath.Join(root, "state")
	return Paths{
		Root:        root,
		Chats:       filepath.Join(root, "chats"),
		Connections: filepath.Join(root, "connections.json"),

		State:     statePath,
		Audit:     filepath.Join(statePath, "audit"),
		Retention: filepath.Join(statePath, "retention"),
		Crash:     filepath.Join(statePath, "crash"),
		Archive:   filepath.Join(root, "archive"),
	}
}

// ChatDir is the directory holding one chat's log and metadata.
func (p Paths) ChatDir(chatDirName string) string {
	return filepath.Join(p.Chats, chatDirName)
}

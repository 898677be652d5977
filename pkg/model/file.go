package model

import "time"

// FileEntry is a read-only projection of one directory entry.
type FileEntry struct {
	Name        string    `json:"name"`
	IsDirectory bool      `json:"is_directory"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified"`
}

// Listing is the result of listing a confined directory.
type Listing struct {
	ResolvedPath string      `json:"resolved_path"`
	Entries      []FileEntry `json:"entries"`
}

// FileChangeOp names what happened to a watched directory entry.
type FileChangeOp string

const (
	FileCreated  FileChangeOp = "create"
	FileWritten  FileChangeOp = "write"
	FileRemoved  FileChangeOp = "remove"
	FileRenamed  FileChangeOp = "rename"
	FileModeEdit FileChangeOp = "chmod"
)

// FileChange is one change to a direct child of a watched directory.
type FileChange struct {
	Op   FileChangeOp `json:"op"`
	Name string       `json:"name"`
	Time time.Time    `json:"time"`
}

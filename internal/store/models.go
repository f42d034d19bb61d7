package store

import "time"

// MediaAsset is the metadata record for one uploaded binary object. The
// remote identifier is assigned by the object store at upload time and is
// the primary key; attributes never change after insert (a replacement
// creates a new asset and removes the old one).
type MediaAsset struct {
	RemoteID  string
	Name      string
	URL       string
	Size      int64
	MimeType  string
	Folder    string
	Width     int
	Height    int
	CreatedAt time.Time
}

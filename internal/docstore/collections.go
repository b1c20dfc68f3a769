package docstore

// Top-level collections of the site.
const (
	Users   CollectionPath = "users"
	Prompts CollectionPath = "prompts"
	Entries CollectionPath = "entries"
	Likes   CollectionPath = "likes"
	Shares  CollectionPath = "shares"
)

// Comments is the comments subcollection of an entry.
func Comments(entryID string) CollectionPath {
	return Collection(string(Entries), entryID, "comments")
}

// EntryRef is the reference string a prompt keeps for one of its entries.
func EntryRef(entryID string) string {
	return Entries.Doc(entryID).String()
}

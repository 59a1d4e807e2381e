package kolab

// Note is a free-form note. IsHTML marks a rich-text Description.
type Note struct {
	UID            string
	Created        DateTime
	LastModified   DateTime
	Classification string
	Categories     []string
	Summary        string
	Description    string
	IsHTML         bool
	Color          string
	Attachments    []Attachment
}

var _ Object = &Note{}

// Type implements Object.
func (n *Note) Type() ObjectType { return NoteObject }

// Dictionary is a configuration object holding a spell-checking word list.
type Dictionary struct {
	UID          string
	Created      DateTime
	LastModified DateTime
	Language     string
	Entries      []string
}

var _ Object = &Dictionary{}

// Type implements Object.
func (d *Dictionary) Type() ObjectType { return DictionaryConfigurationObject }

// Relation is a configuration object grouping stored objects, e.g. a tag. Members are relation
// member URIs.
type Relation struct {
	UID          string
	Created      DateTime
	LastModified DateTime
	Name         string
	RelationType string
	Color        string
	Priority     int
	Members      []string
}

var _ Object = &Relation{}

// Type implements Object.
func (r *Relation) Type() ObjectType { return RelationConfigurationObject }

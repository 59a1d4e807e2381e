package kolab

// Name is the structured name of a contact.
type Name struct {
	Family     string
	Given      string
	Additional string
	Prefix     string
	Suffix     string
}

// Email is an email address of a contact.
type Email struct {
	Address string
	Types   []string
}

// Phone is a telephone number of a contact.
type Phone struct {
	Number string
	Types  []string
}

// Address is a postal address of a contact.
type Address struct {
	Types    []string
	POBox    string
	Extended string
	Street   string
	Locality string
	Region   string
	Code     string
	Country  string
}

// Contact is an address book entry.
type Contact struct {
	UID           string
	LastModified  DateTime
	FormattedName string
	Name          Name
	Nickname      string
	Emails        []Email
	Phones        []Phone
	Addresses     []Address
	Organization  string
	Title         string
	URLs          []string
	Note          string
	Categories    []string
	Birthday      DateTime
	PhotoURI      string
}

var _ Object = &Contact{}

// Type implements Object.
func (c *Contact) Type() ObjectType { return ContactObject }

// PreferredEmail returns the first email address, or "".
func (c *Contact) PreferredEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0].Address
}

// DistList is a named list of contacts.
type DistList struct {
	UID          string
	LastModified DateTime
	Name         string
	Members      []Person
}

var _ Object = &DistList{}

// Type implements Object.
func (d *DistList) Type() ObjectType { return DistlistObject }

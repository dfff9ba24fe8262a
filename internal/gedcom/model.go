package gedcom

// Individual is the INDI skeleton the analysis needs.
type Individual struct {
	ID   string
	Name string

	Birth       *DateValue
	Christening *DateValue
	Death       *DateValue

	// FamilyChild lists FAMC references, FamilySpouse FAMS references.
	FamilyChild  []string
	FamilySpouse []string
}

// Family is the FAM skeleton the analysis needs. Children keep document
// order, which defines the first child.
type Family struct {
	ID            string
	Husband       string
	Wife          string
	Children      []string
	Marriage      *DateValue
	MarriagePlace string
}

// Spouses returns the recorded spouse IDs, husband first.
func (f *Family) Spouses() []string {
	var out []string
	if f.Husband != "" {
		out = append(out, f.Husband)
	}
	if f.Wife != "" {
		out = append(out, f.Wife)
	}
	return out
}

// FirstChild returns the first CHIL reference in document order.
func (f *Family) FirstChild() (string, bool) {
	if len(f.Children) == 0 {
		return "", false
	}
	return f.Children[0], true
}

// Header holds the HEAD fields worth reporting.
type Header struct {
	Charset string
	Source  string
	Version string
}

// Document is the extracted record set. Individuals and Families keep
// insertion order; lookups go through the ID indexes, so references may
// point forward or to records that do not exist.
type Document struct {
	Header      Header
	Individuals []*Individual
	Families    []*Family

	individuals map[string]*Individual
	families    map[string]*Family
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		individuals: make(map[string]*Individual),
		families:    make(map[string]*Family),
	}
}

// Individual looks up an individual by xref ID (e.g. "@I1@").
func (d *Document) Individual(id string) (*Individual, bool) {
	i, ok := d.individuals[id]
	return i, ok
}

// Family looks up a family by xref ID.
func (d *Document) Family(id string) (*Family, bool) {
	f, ok := d.families[id]
	return f, ok
}

// addIndividual registers ind unless its ID is already taken.
func (d *Document) addIndividual(ind *Individual) bool {
	if _, dup := d.individuals[ind.ID]; dup {
		return false
	}
	d.individuals[ind.ID] = ind
	d.Individuals = append(d.Individuals, ind)
	return true
}

func (d *Document) addFamily(f *Family) bool {
	if _, dup := d.families[f.ID]; dup {
		return false
	}
	d.families[f.ID] = f
	d.Families = append(d.Families, f)
	return true
}

// DisplayName returns the individual's name, or the ID when unnamed.
func (d *Document) DisplayName(id string) string {
	if ind, ok := d.individuals[id]; ok && ind.Name != "" {
		return ind.Name
	}
	return id
}

package catalog

import "strings"

// Other is returned when no catalog entry occurs in a title.
const Other = "Other"

// Catalog is an ordered list of manufacturer names. Order matters: the first
// entry found in a title wins, so a short name listed before a longer name
// that contains it will shadow the longer one.
type Catalog struct {
	names []string
	lower []string
}

// New builds a catalog that keeps names in the given order.
func New(names ...string) *Catalog {
	c := &Catalog{
		names: make([]string, len(names)),
		lower: make([]string, len(names)),
	}
	copy(c.names, names)
	for i, n := range names {
		c.lower[i] = strings.ToLower(n)
	}
	return c
}

// Default returns the manufacturers recognised on automobile.tn.
func Default() *Catalog {
	return New(
		"Alfa Romeo", "Audi", "BAIC", "BMW", "BYD", "Chery", "Chevrolet", "Citroën", "Cupra",
		"Dacia", "DFSK", "Dodge", "Dongfeng", "DS", "Faw", "Fiat", "Ford", "Foton", "GAC", "Geely",
		"Great Wall", "Haval", "Honda", "Hummer", "Hyundai", "Infiniti", "Isuzu", "Iveco", "Jaguar",
		"Jeep", "KIA", "Lada", "Lancia", "Land Rover", "Mahindra", "Maserati", "Mazda", "Mercedes",
		"MG", "Mini", "Mitsubishi", "Nissan", "Opel", "Peugeot", "Piaggio", "Porsche", "Renault", "Seat",
		"Skoda", "Smart", "Ssangyong", "Suzuki", "TATA", "Toyota", "Volkswagen", "Volvo", "Wallyscar",
	)
}

// Classify returns the first catalog name contained in title, compared
// case-insensitively, or Other.
func (c *Catalog) Classify(title string) string {
	t := strings.ToLower(title)
	for i, n := range c.lower {
		if n == "" {
			continue
		}
		if strings.Contains(t, n) {
			return c.names[i]
		}
	}
	return Other
}

// Names returns a copy of the catalog entries in order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Len() int {
	return len(c.names)
}

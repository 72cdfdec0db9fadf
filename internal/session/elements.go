package session

import "sync"

// Surface je kontejner jednoho grafu. Velikost určuje layout stránky,
// do slotu attached si vykreslovací engine uloží svou instanci (jedna na kontejner).
type Surface struct {
	id string

	mu       sync.Mutex
	size     Size
	attached any
}

// ID vrací id kontejneru.
func (sf *Surface) ID() string { return sf.id }

// Size vrací aktuální velikost kontejneru.
func (sf *Surface) Size() Size {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.size
}

// SetSize změní velikost kontejneru (např. po sbalení postranního panelu).
// Grafy se nepřekreslí samy, volající musí zavolat resize.
func (sf *Surface) SetSize(width, height int) {
	sf.mu.Lock()
	sf.size = Size{Width: width, Height: height}
	sf.mu.Unlock()
}

// Attached vrací instanci připojenou ke kontejneru (nil, pokud žádná není).
func (sf *Surface) Attached() any {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.attached
}

// AttachIfAbsent připojí instanci z create, pokud kontejner ještě nic nemá, a vrátí platnou instanci.
// create běží mimo zámek (smí číst Size). Když mezitím připojí instanci někdo jiný,
// vytvořená se zahodí a vrátí se ta připojená.
func (sf *Surface) AttachIfAbsent(create func() any) any {
	sf.mu.Lock()
	if sf.attached != nil {
		a := sf.attached
		sf.mu.Unlock()
		return a
	}
	sf.mu.Unlock()

	v := create()

	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.attached == nil {
		sf.attached = v
	}
	return sf.attached
}

// Detach uvolní připojenou instanci.
func (sf *Surface) Detach() {
	sf.mu.Lock()
	sf.attached = nil
	sf.mu.Unlock()
}

// Element je jeden uzel v oblasti (např. karta upozornění).
type Element struct {
	ID    string
	Class string
	Data  any
}

// Region je uspořádaný seznam elementů. Nové se přidávají na konec.
type Region struct {
	id string

	mu       sync.Mutex
	children []Element
}

// ID vrací id oblasti.
func (r *Region) ID() string { return r.id }

// Append přidá element na konec.
func (r *Region) Append(el Element) {
	r.mu.Lock()
	r.children = append(r.children, el)
	r.mu.Unlock()
}

// Remove odebere element podle id. Vrací false, pokud v oblasti nebyl.
func (r *Region) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, el := range r.children {
		if el.ID == id {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return true
		}
	}
	return false
}

// Children vrací kopii elementů v pořadí.
func (r *Region) Children() []Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Element(nil), r.children...)
}

// Len vrací počet elementů.
func (r *Region) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.children)
}

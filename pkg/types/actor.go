package types

// Actor identifies who triggered a mutation and from where.
type Actor struct {
	Name      string
	IPAddress string
}

// SystemActor is used by scheduled jobs.
func SystemActor(name string) Actor {
	if name == "" {
		name = "SYSTEM"
	}
	return Actor{Name: name}
}

// IPPtr returns the address as a nullable column value.
func (a Actor) IPPtr() *string {
	if a.IPAddress == "" {
		return nil
	}
	ip := a.IPAddress
	return &ip
}

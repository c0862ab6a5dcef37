package keys

import "xdao.co/tanglemsg/ident"

// Export is the public description of a stored key.
type Export struct {
	Name   string             `json:"name"`
	Role   string             `json:"role,omitempty"`
	Pubkey ident.VerifyingKey `json:"pubkey"`
}

// ExportKey loads a stored seed and returns its public side.
func (ks *KeyStore) ExportKey(name, role string) (Export, error) {
	kp, err := ks.Keypair(name, role)
	if err != nil {
		return Export{}, err
	}
	return Export{Name: name, Role: role, Pubkey: kp.Verifying}, nil
}

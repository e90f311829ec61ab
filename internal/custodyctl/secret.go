package custodyctl

import (
	"errors"
	"fmt"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// appSecret returns the inner-layer secret, prompting without echo when it
// is not configured or --ask-secret is set. The caller wipes the result.
func (o *options) appSecret() ([]byte, error) {
	if !o.askSecret && o.cfg.AppSecret != "" {
		return []byte(o.cfg.AppSecret), nil
	}
	if _, err := fmt.Fprint(o.out, "Application secret: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(o.in)
	fmt.Fprintln(o.out)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, errors.New("empty application secret")
	}
	return pw, nil
}

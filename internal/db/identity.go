package db

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// identityNamespace scopes connection identities so they never collide with
// other v5 UUIDs derived from the same text.
var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/vvka-141/sphelper/connection"))

// Identity derives the stable cache identity of a connection target.
// Two configs that reach the same database as the same login share an
// identity; the password and pool options do not participate.
func Identity(cfg *sphelper.ConnectionConfig) string {
	target := cfg.Host
	if cfg.AuthMethod == sphelper.AuthMethodGoogleIAM {
		target = cfg.GoogleInstance
	}
	canonical := fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		strings.ToLower(cfg.Driver),
		strings.ToLower(target),
		cfg.Port,
		strings.ToLower(cfg.AdditionalParams["instance"]),
		strings.ToLower(cfg.Database),
		cfg.Username,
	)
	return uuid.NewSHA1(identityNamespace, []byte(canonical)).String()
}

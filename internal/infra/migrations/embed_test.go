package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSchemaDeclaresUniqueConstraints(t *testing.T) {
	body, err := fs.ReadFile(FS, "0001_membership.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	schema := string(body)
	for _, want := range []string{"accounts_phone_key", "accounts_invitation_code_key", "PRIMARY KEY (proposal_id, account_id)"} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}

package entity

import "testing"

func TestParseQualifiedNameRoundTrip(t *testing.T) {
	cases := []string{
		"/guest/echo",
		"/whisk.system/routemgmt/getApi",
	}
	for _, raw := range cases {
		fqn, errParse := ParseQualifiedName(raw, "")
		if errParse != nil {
			t.Fatalf("parse %s: %v", raw, errParse)
		}
		if fqn.String() != raw {
			t.Fatalf("round trip %s: got %s", raw, fqn.String())
		}
	}
}

func TestParseQualifiedNameRelativeForms(t *testing.T) {
	fqn, errParse := ParseQualifiedName("routemgmt/getApi", "guest")
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if fqn.Namespace != "guest" || fqn.Package != "routemgmt" || fqn.Name != "getApi" {
		t.Fatalf("unexpected fqn: %+v", fqn)
	}

	bare, errBare := ParseQualifiedName("echo", "guest")
	if errBare != nil {
		t.Fatalf("parse: %v", errBare)
	}
	if bare.Namespace != "guest" || bare.Package != "" || bare.Name != "echo" {
		t.Fatalf("unexpected fqn: %+v", bare)
	}
}

func TestParseQualifiedNameRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "/", "/ns", "//name", "/a/b/c/d", "a/b/c/d"} {
		if _, errParse := ParseQualifiedName(raw, "guest"); errParse == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDocumentIDAndPathName(t *testing.T) {
	fqn := FullyQualifiedName{Namespace: "whisk.system", Package: "routemgmt", Name: "getApi"}
	if fqn.DocumentID() != "whisk.system/routemgmt/getApi" {
		t.Fatalf("unexpected document id: %s", fqn.DocumentID())
	}
	if fqn.PathName() != "routemgmt/getApi" {
		t.Fatalf("unexpected path name: %s", fqn.PathName())
	}

	plain := FullyQualifiedName{Namespace: "guest", Name: "echo"}
	if plain.PathName() != "echo" {
		t.Fatalf("unexpected path name: %s", plain.PathName())
	}
}

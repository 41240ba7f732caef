package appconfig

import (
	"errors"
	"reflect"
	"testing"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

func TestConfigSections_DeclareNested(t *testing.T) {
	d := mustParse(t, `<configuration>
  <appSettings/>
</configuration>`)
	cs := d.ConfigSections()

	if err := cs.Declare("mySection", "Demo.MySection, Demo"); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if err := cs.Declare("system.web/authentication", "System.Web.AuthenticationSection"); err != nil {
		t.Fatalf("Declare nested failed: %v", err)
	}
	if err := cs.Declare("system.web/membership", "System.Web.MembershipSection"); err != nil {
		t.Fatalf("Declare nested failed: %v", err)
	}
	if err := cs.Declare("mySection", "Demo.MySection, Demo, Version=2.0"); err != nil {
		t.Fatalf("Declare update failed: %v", err)
	}

	assertXML(t, mustBytes(t, d), `<configuration>
  <configSections>
    <section name="mySection" type="Demo.MySection, Demo, Version=2.0"/>
    <sectionGroup name="system.web">
      <section name="authentication" type="System.Web.AuthenticationSection"/>
      <section name="membership" type="System.Web.MembershipSection"/>
    </sectionGroup>
  </configSections>
  <appSettings/>
</configuration>`)

	want := []Declaration{
		{Path: "mySection", Type: "Demo.MySection, Demo, Version=2.0"},
		{Path: "system.web/authentication", Type: "System.Web.AuthenticationSection"},
		{Path: "system.web/membership", Type: "System.Web.MembershipSection"},
	}
	if got := cs.Declarations(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected declarations:\n got: %+v\nwant: %+v", got, want)
	}

	decl, err := cs.Declaration("system.web/membership")
	if err != nil {
		t.Fatalf("Declaration failed: %v", err)
	}
	if decl.Type != "System.Web.MembershipSection" {
		t.Errorf("unexpected type %q", decl.Type)
	}
}

func TestConfigSections_RemovePrunesEmptyGroups(t *testing.T) {
	d := New()
	cs := d.ConfigSections()
	if err := cs.Declare("outer/inner/leaf", "T"); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	if err := cs.Remove("outer/inner/leaf"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got := cs.Declarations(); len(got) != 0 {
		t.Errorf("expected no declarations, got %+v", got)
	}
	assertXML(t, mustBytes(t, d), `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <configSections/>
</configuration>`)

	if err := cs.Remove("outer/inner/leaf"); !errors.Is(err, kerrors.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got: %v", err)
	}
	if _, err := cs.Declaration("nope"); !errors.Is(err, kerrors.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got: %v", err)
	}
}

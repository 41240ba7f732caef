// Package appconfig reads and edits .NET style application configuration
// files and protects individual sections in place.
//
// A document is an XML tree rooted at <configuration>. Well known sections
// have typed accessors:
//
//   - appSettings: <add key="..." value="..."/> pairs
//   - connectionStrings: <add name="..." connectionString="..." providerName="..."/>
//   - configSections: <section name="..." type="..."/> declarations, optionally
//     nested in <sectionGroup name="..."> elements
//
// Custom sections may hold a nested <settings> tree of strings, lists and
// dictionaries. See ReadSettings for the format.
//
// # Protection
//
// Protect replaces a section with an encrypted envelope produced by the
// protection package and Unprotect reverses it. The envelope takes the
// section's position among its siblings, so the document layout is stable
// across a protect/unprotect cycle. A failed operation leaves the document
// untouched.
//
// Typed accessors refuse to operate on a protected section and return
// ErrSectionProtected.
package appconfig

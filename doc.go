/*
Package lesscpy implements a LESS compiler. It reads LESS source, a
superset of CSS, and emits plain CSS in either a readable or a minified
form.

This module is meant both as a library and as the backing for the lessc
command in cmd/lessc.


Basics

Compilation is a single pass over the token stream. The scanner breaks
the source into LESS tokens (identifiers, variables, strings, numbers
with units, at-keywords and so on). The parser consumes those tokens and
reduces them directly to output nodes, resolving variables, evaluating
arithmetic and expanding mixins as each construct completes. There is no
separate semantic pass; a declaration's values are resolved against the
scope as it stands when its enclosing block closes.

Scoping follows the source's block structure. Opening a brace pushes a
frame; variables, mixins and named blocks declared inside it are visible
until the matching brace pops it. Inner declarations shadow outer ones.
Inside a mixin body, resolution is deferred: the body is replayed
against the caller's scope at each call site, so arguments and caller
variables bind per call.

Imports of .less files are compiled in place with the same scope, so an
imported file's variables and mixins are available to the text that
follows the import. Imports of other extensions pass through untouched.


Packages

The scanner and token packages handle lexing. The ast package holds the
node types and their resolution behavior, the scope package the frame
stack they resolve against. The parser package drives the reduction and
collects diagnostics; the printer package renders the resulting nodes as
CSS.
*/
package lesscpy

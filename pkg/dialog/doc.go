/*
Package dialog holds the pieces shared by every sub-dialog: the turn context a dialog
reads and writes, the choice-prompt validator, and the contract the router drives.

A sub-dialog never blocks waiting for the user. When it needs an answer it emits a
prompt, records the step it is suspended at in the conversation's DialogStack, and
returns. The next turn resumes it through Continue.
*/
package dialog

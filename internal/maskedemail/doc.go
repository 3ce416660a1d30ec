// Package maskedemail manages Fastmail masked email addresses over JMAP.
//
// Every operation takes the account identifier explicitly and performs a
// single batch exchange through a jmap client. Set responses are interpreted
// per entry as Outcome values; rejections surface as jmap protocol failures.
//
// Lifecycle:
//
//	(absent) --create--> enabled --archive--> disabled --destroy--> deleted
//	                        \------------------destroy--------------/
//
// Deleted is terminal and nothing returns to enabled.
package maskedemail

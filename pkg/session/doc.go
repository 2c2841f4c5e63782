/*
Package session is the single-writer boundary around stored conversations.

Every read-modify-write of a Conversation goes through Manager.Update, which
serializes access per session id with a ref-counted in-process mutex and,
when configured, a DistributedLocker shared by every replica.
*/
package session

/*
Package session implements session management and persistence orchestration.

It serializes turns on the same session, locally with reference-counted
mutexes and across replicas with an optional distributed locker, and hides
the load-or-create and save steps of a turn behind WithSession.
*/
package session

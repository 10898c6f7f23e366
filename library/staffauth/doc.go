// Package staffauth provides password hashing and token handling for staff
// logins. Passwords are stored as bcrypt hashes; sessions are short-lived
// HS256 JWTs carrying the employee id and username.
package staffauth

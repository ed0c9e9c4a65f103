/*
Package outline provides a glueops.DocumentClient backed by the Outline
document API.

All API calls are JSON POST requests authenticated with a bearer token. Child
documents are enumerated one page at a time: the offset advances by the page
size after each page, and the walk stops as soon as a page is empty or carries
no next page path.
*/
package outline

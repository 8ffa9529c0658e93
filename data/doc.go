/*
Package data defines the todo list domain model and the Store interface
that every storage backend implements.

A ToDoList is a named container of ToDoItems. Within a list, every item
holds a distinct priority; lower priority numbers sort earlier. The one
interesting operation is priority placement: when an item is created at,
or moved to, a priority another item already holds, the occupying item
(and any contiguous run of items after it) is pushed down by one.

Sample interaction with the HTTP layer on top of a Store:

	$ curl -X POST localhost:8080/api/v1/todoitem -d \
	  '{"name": "C", "description": "third", "to_do_list": "work", "priority": 1}'

Given a list "work" holding A(priority=1) and B(priority=2), the result is
C=1, A=2, B=3: A was displaced by C, and the displacement cascaded to B.
A gap in the priorities stops the cascade, so an item at priority 9 would
have been left alone.
*/
package data

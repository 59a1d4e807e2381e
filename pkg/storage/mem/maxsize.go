package mem

import "container/list"

type msgDone struct {
	obj  *Object
	done chan struct{}
}

// maxSizeEnforcer will delete the oldest object until the entire store is equal to or less than
// maxSize bytes.
func (s *Store) maxSizeEnforcer(maxSize int64) {
	all := &list.List{}
	curSize := int64(0)
	for {
		select {
		case md, ok := <-s.incoming:
			if !ok {
				return
			}
			// Add object to all.
			o := md.obj
			el := all.PushBack(o)
			o.el = el
			curSize += o.Size()
			for curSize > maxSize {
				// Remove oldest object.
				el := all.Front()
				all.Remove(el)
				o := el.Value.(*Object)
				if s.removeObject(o.folder, o.id) != nil {
					curSize -= o.Size()
				}
			}
			close(md.done)
		case md, ok := <-s.remove:
			if !ok {
				return
			}
			// Remove object from all.
			o := md.obj
			el := all.Remove(o.el)
			if el != nil {
				curSize -= o.Size()
			}
			close(md.done)
		}
	}
}

// enforcerDeliver sends delivery to enforcer if configured, and waits for completion.
func (s *Store) enforcerDeliver(o *Object) {
	if s.incoming != nil {
		md := &msgDone{
			obj:  o,
			done: make(chan struct{}),
		}
		s.incoming <- md
		<-md.done
	}
}

// enforcerRemove sends removal to enforcer if configured, and waits for completion.
func (s *Store) enforcerRemove(o *Object) {
	if s.remove != nil {
		md := &msgDone{
			obj:  o,
			done: make(chan struct{}),
		}
		s.remove <- md
		<-md.done
	}
}

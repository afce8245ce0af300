package godi

import (
	"fmt"
	"reflect"
)

func (r *Resolver) provideUsing(p *registration, name Name, tracker *Tracker) (reflect.Value, error) {
	// fast path, the component is a singleton already built
	if storedComp, found := r.store.Get(name); found {
		return storedComp, nil
	}

	err := tracker.Push(name)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("dependency cycle detected when trying to provide component %s using provider %s:\n\t%w", name, p, err)
	}
	defer tracker.Pop()

	unlock := r.lock.Lock(name)
	defer unlock()

	// now that we have the lock, check if the component was built while we were waiting
	if storedComp, found := r.store.Get(name); found {
		return storedComp, nil
	}

	dependencies, err := r.resolveDependencies(p.Dependencies(), tracker)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to resolve dependencies for provider %s to provide component %s:\n\t%w", p, name, err)
	}

	comp, err := p.Provide(name, dependencies)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to provide component %s using provider %s:\n\t%w", name, p, err)
	}

	comp, err = r.decorate(name, comp, tracker)
	if err != nil {
		return reflect.Value{}, err
	}

	r.store.Put(name, comp, !p.unmanaged)
	r.logger.Debug().Stringer("component", name).Bool("managed", !p.unmanaged).Msg("component built")

	return comp, nil
}

// decorate applies the decorators registered for the name, in priority order.
func (r *Resolver) decorate(name Name, comp reflect.Value, tracker *Tracker) (reflect.Value, error) {
	for _, decorator := range r.decoratorsFor(name) {
		dependencies, err := r.resolveDependencies(decorator.Dependencies(), tracker)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to resolve dependencies for decorator %v:\n\t%w", decorator, err)
		}
		comp, err = decorator.Decorate(comp, dependencies)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to apply decorator %v to component %s:\n\t%w", decorator, name, err)
		}
	}
	return comp, nil
}

func (r *Resolver) resolveDependencies(requests []Request, tracker *Tracker) ([]reflect.Value, error) {
	dependencies := make([]reflect.Value, len(requests))
	for idx, req := range requests {
		req.tracker = NewTrackerFrom(tracker)
		val, found, err := r.resolve(req)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependency %v:\n\t%w", req, err)
		}
		if !found {
			val = reflect.Zero(req.unitaryTyp)
		}
		dependencies[idx] = val
	}

	return dependencies, nil
}
